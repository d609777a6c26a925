// internal/app/system/activitylog/logger.go
package activitylog

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/store/activity"
)

// Mode values control where entries go: "all" (MongoDB + zap), "db"
// (MongoDB only), "log" (zap only), "off" (disabled).
type Config struct {
	// Auth covers login, logout, and registration events.
	Auth string
	// Member covers lifecycle, profile, group, and follow-up events.
	Member string
}

// Logger writes activity entries to the activity store and to structured
// logs. A nil *Logger is a no-op so handlers can run without one in tests.
type Logger struct {
	store  *activity.Store
	zapLog *zap.Logger
	config Config
}

// New creates an activity Logger.
func New(store *activity.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ClientIP extracts the client address, preferring reverse-proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func isAuthAction(action string) bool {
	switch action {
	case activity.ActionLogin, activity.ActionLogout, activity.ActionRegister:
		return true
	}
	return false
}

func (l *Logger) logToZap(e activity.Entry) {
	fields := []zap.Field{
		zap.Bool("activity", true),
		zap.String("action", e.Action),
		zap.String("user_id", e.UserID.Hex()),
	}
	if e.ChurchID != nil {
		fields = append(fields, zap.String("church_id", e.ChurchID.Hex()))
	}
	if e.Description != "" {
		fields = append(fields, zap.String("description", e.Description))
	}
	if e.IPAddress != "" {
		fields = append(fields, zap.String("ip", e.IPAddress))
	}
	if e.TargetID != nil {
		fields = append(fields, zap.String("target_id", e.TargetID.Hex()))
	}
	l.zapLog.Info("activity", fields...)
}

// Record writes one entry according to the configured mode for its action
// category. Store failures are logged and swallowed; an unloggable action
// never fails the operation that caused it.
func (l *Logger) Record(ctx context.Context, e activity.Entry) {
	if l == nil {
		return
	}
	setting := l.config.Member
	if isAuthAction(e.Action) {
		setting = l.config.Auth
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(e)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Create(ctx, e); err != nil {
			l.zapLog.Error("failed to store activity entry",
				zap.Error(err),
				zap.String("action", e.Action),
			)
		}
	}
}

// Login records a successful sign-in.
func (l *Logger) Login(ctx context.Context, r *http.Request, userID primitive.ObjectID, churchID *primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:      userID,
		ChurchID:    churchID,
		Action:      activity.ActionLogin,
		Description: "signed in",
		IPAddress:   ClientIP(r),
	})
}

// Logout records a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID, churchID *primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:      userID,
		ChurchID:    churchID,
		Action:      activity.ActionLogout,
		Description: "signed out",
		IPAddress:   ClientIP(r),
	})
}

// Register records a completed registration.
func (l *Logger) Register(ctx context.Context, r *http.Request, userID primitive.ObjectID, churchID *primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:      userID,
		ChurchID:    churchID,
		Action:      activity.ActionRegister,
		Description: "registered as new friend",
		IPAddress:   ClientIP(r),
	})
}

// StatusChange records a timer or lifecycle change for a member.
func (l *Logger) StatusChange(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, targetID primitive.ObjectID, description string) {
	l.Record(ctx, activity.Entry{
		UserID:      actorID,
		ChurchID:    churchID,
		Action:      activity.ActionStatusChange,
		Description: description,
		TargetID:    &targetID,
	})
}

// Attendance records an attendance mark.
func (l *Logger) Attendance(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, targetID primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:   actorID,
		ChurchID: churchID,
		Action:   activity.ActionAttendance,
		TargetID: &targetID,
	})
}

// FollowUp records a follow-up status change for a new friend.
func (l *Logger) FollowUp(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, targetID primitive.ObjectID, newStatus string) {
	l.Record(ctx, activity.Entry{
		UserID:      actorID,
		ChurchID:    churchID,
		Action:      activity.ActionFollowUp,
		Description: "follow-up moved to " + newStatus,
		TargetID:    &targetID,
	})
}

// GroupJoin records a member joining a group.
func (l *Logger) GroupJoin(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, groupID primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:   actorID,
		ChurchID: churchID,
		Action:   activity.ActionGroupJoin,
		TargetID: &groupID,
	})
}

// GroupLeave records a member leaving a group.
func (l *Logger) GroupLeave(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, groupID primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:   actorID,
		ChurchID: churchID,
		Action:   activity.ActionGroupLeave,
		TargetID: &groupID,
	})
}

// ProfileUpdate records a profile edit.
func (l *Logger) ProfileUpdate(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, targetID primitive.ObjectID) {
	l.Record(ctx, activity.Entry{
		UserID:   actorID,
		ChurchID: churchID,
		Action:   activity.ActionProfileUpdate,
		TargetID: &targetID,
	})
}

// RoleChange records a role assignment.
func (l *Logger) RoleChange(ctx context.Context, actorID primitive.ObjectID, churchID *primitive.ObjectID, targetID primitive.ObjectID, newRole string) {
	l.Record(ctx, activity.Entry{
		UserID:      actorID,
		ChurchID:    churchID,
		Action:      activity.ActionRoleChange,
		Description: "role changed to " + newRole,
		TargetID:    &targetID,
	})
}
