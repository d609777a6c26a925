// internal/app/features/activity/handler.go
package activity

import (
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	activitystore "github.com/jcsgo/shepherd/internal/app/store/activity"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/paging"
)

// Handler serves the church activity log: filtered listings for leadership
// and a per-church summary of recent actions.
type Handler struct {
	Log        *zap.Logger
	Activities *activitystore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Activities: activitystore.New(db),
	}
}

var knownActions = map[string]bool{
	activitystore.ActionLogin:         true,
	activitystore.ActionLogout:        true,
	activitystore.ActionRegister:      true,
	activitystore.ActionProfileUpdate: true,
	activitystore.ActionRoleChange:    true,
	activitystore.ActionStatusChange:  true,
	activitystore.ActionGroupJoin:     true,
	activitystore.ActionGroupLeave:    true,
	activitystore.ActionAttendance:    true,
	activitystore.ActionFollowUp:      true,
}

// logChurch resolves which church's log is requested. Superusers pick one
// with ?church_id; everyone else is scoped to their own church.
func logChurch(r *http.Request) (primitive.ObjectID, error) {
	if authz.IsSuperuser(r) {
		raw := r.URL.Query().Get("church_id")
		if raw == "" {
			return primitive.NilObjectID, apperr.Validation("church_id is required")
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return primitive.NilObjectID, apperr.Validation("invalid church_id")
		}
		return id, nil
	}
	return authz.UserChurchID(r), nil
}

// parseWhen accepts either a date (2006-01-02) or a full RFC 3339 stamp.
func parseWhen(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ServeList handles GET /activity. Leadership only. Filters: action,
// user_id, since, until; newest first, paginated.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireLeadership(w, r, "only church leadership can view the activity log")
	if !g.OK {
		return
	}
	churchID, err := logChurch(r)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	q := r.URL.Query()
	filter := activitystore.Filter{ChurchID: &churchID}

	if action := q.Get("action"); action != "" {
		if !knownActions[action] {
			httpjson.Error(w, http.StatusBadRequest, "unknown action "+action)
			return
		}
		filter.Action = action
	}
	if raw := q.Get("user_id"); raw != "" {
		uid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = &uid
	}
	if raw := q.Get("since"); raw != "" {
		t, err := parseWhen(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "since must be a date or RFC 3339 timestamp")
			return
		}
		filter.Since = &t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := parseWhen(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "until must be a date or RFC 3339 timestamp")
			return
		}
		filter.Until = &t
	}

	page := paging.Parse(r, paging.ActivityPageSize)
	total, err := h.Activities.Count(r.Context(), filter)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("count activity", err))
		return
	}
	entries, err := h.Activities.List(r.Context(), filter, page.FindOptions())
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list activity", err))
		return
	}
	if entries == nil {
		entries = []activitystore.Entry{}
	}

	httpjson.OK(w, map[string]any{
		"entries": entries,
		"meta":    paging.MetaFor(page, total),
	})
}

const (
	defaultSummaryDays = 7
	maxSummaryDays     = 90
	summaryRecentCount = 10
)

// ServeSummary handles GET /activity/summary: per-action counts, the number
// of distinct active users, and the most recent entries over a trailing
// window (?days=, default 7).
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireLeadership(w, r, "only church leadership can view the activity summary")
	if !g.OK {
		return
	}
	churchID, err := logChurch(r)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	days := defaultSummaryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSummaryDays {
			httpjson.Error(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = n
	}
	window := time.Duration(days) * 24 * time.Hour
	since := time.Now().UTC().Add(-window)

	counts, err := h.Activities.Summary(r.Context(), churchID, window)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("summarize activity", err))
		return
	}
	actors, err := h.Activities.DistinctActors(r.Context(), churchID, since)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("count distinct actors", err))
		return
	}
	recent, err := h.Activities.List(r.Context(),
		activitystore.Filter{ChurchID: &churchID, Since: &since},
		paging.Page{Number: 1, PerPage: summaryRecentCount}.FindOptions())
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list recent activity", err))
		return
	}
	if recent == nil {
		recent = []activitystore.Entry{}
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	httpjson.OK(w, map[string]any{
		"days":          days,
		"action_counts": counts,
		"total_actions": total,
		"active_users":  actors,
		"recent":        recent,
	})
}
