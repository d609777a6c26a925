// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	announcementstore "github.com/jcsgo/shepherd/internal/app/store/announcements"
	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	settingsstore "github.com/jcsgo/shepherd/internal/app/store/settings"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
)

// Handler serves the role-dependent dashboard payloads.
type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	Churches      *churchstore.Store
	Settings      *settingsstore.Store
	NewFriends    *newfriendstore.Store
	Regulars      *regularstore.Store
	Announcements *announcementstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		Churches:      churchstore.New(db),
		Settings:      settingsstore.New(db),
		NewFriends:    newfriendstore.New(db),
		Regulars:      regularstore.New(db),
		Announcements: announcementstore.New(db),
	}
}

// Serve handles GET /dashboard. The variant is resolved once from the
// session user; the payload shape differs per variant.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	switch roles.VariantFor(authz.IsSuperuser(r), g.Role) {
	case roles.VariantSuperAdmin:
		h.serveSuperAdmin(w, r)
	case roles.VariantChurchAdmin:
		h.serveChurchAdmin(w, r)
	default:
		h.serveMember(w, r)
	}
}

// rolePercentages turns per-role counts into one-decimal percentages of
// the total. An empty church yields zeroes, not a division error.
func rolePercentages(counts map[string]int64) map[string]float64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	out := make(map[string]float64, len(roles.RegularRoleTypes))
	for _, role := range roles.RegularRoleTypes {
		if total == 0 {
			out[role] = 0
			continue
		}
		pct := float64(counts[role]) / float64(total) * 100
		out[role] = float64(int(pct*10+0.5)) / 10
	}
	return out
}

func (h *Handler) churchCard(ctx context.Context, churchID primitive.ObjectID) (map[string]any, error) {
	stats, err := h.Churches.MemberStatistics(ctx, churchID)
	if err != nil {
		return nil, apperr.Storage("church statistics", err)
	}
	cfg, err := h.Settings.Get(ctx, churchID)
	if err != nil {
		return nil, apperr.Storage("church settings", err)
	}

	card := map[string]any{
		"church_id":     churchID.Hex(),
		"total_members": stats.TotalMembers,
		"recent_joins":  stats.RecentJoins,
	}
	if cfg.ShowNewFriendsCount {
		card["new_friends"] = stats.NewFriends
	}
	if cfg.ShowRegularsCount {
		card["regular_members"] = stats.RegularMembers
	}
	return card, nil
}

func (h *Handler) serveMember(w http.ResponseWriter, r *http.Request) {
	churchID := authz.UserChurchID(r)
	if churchID == primitive.NilObjectID {
		httpjson.Error(w, http.StatusForbidden, "no church on this account")
		return
	}

	card, err := h.churchCard(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	current, err := h.Announcements.ListCurrent(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list announcements", err))
		return
	}

	httpjson.OK(w, map[string]any{
		"variant":       roles.VariantMember.String(),
		"church":        card,
		"announcements": current,
	})
}

func (h *Handler) serveChurchAdmin(w http.ResponseWriter, r *http.Request) {
	churchID := authz.UserChurchID(r)
	if churchID == primitive.NilObjectID {
		httpjson.Error(w, http.StatusForbidden, "no church on this account")
		return
	}
	ctx := r.Context()

	card, err := h.churchCard(ctx, churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	roleCounts, err := h.Regulars.CountByRoleType(ctx, churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("role breakdown", err))
		return
	}
	followUp, err := h.NewFriends.CountByStatus(ctx, churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("follow-up breakdown", err))
		return
	}

	httpjson.OK(w, map[string]any{
		"variant":          roles.VariantChurchAdmin.String(),
		"church":           card,
		"role_counts":      roleCounts,
		"role_percentages": rolePercentages(roleCounts),
		"follow_up_counts": followUp,
	})
}

func (h *Handler) serveSuperAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	churches, err := h.Churches.ListAll(ctx)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list churches", err))
		return
	}

	cards := make([]map[string]any, 0, len(churches))
	totals := map[string]int64{"total_members": 0, "new_friends": 0, "regular_members": 0}
	for _, ch := range churches {
		stats, err := h.Churches.MemberStatistics(ctx, ch.ID)
		if err != nil {
			httpjson.WriteErr(w, h.Log, apperr.Storage("church statistics", err))
			return
		}
		cards = append(cards, map[string]any{
			"church_id":       ch.ID.Hex(),
			"name":            ch.Name,
			"domain":          ch.Domain,
			"active":          ch.Active,
			"total_members":   stats.TotalMembers,
			"new_friends":     stats.NewFriends,
			"regular_members": stats.RegularMembers,
			"recent_joins":    stats.RecentJoins,
		})
		totals["total_members"] += stats.TotalMembers
		totals["new_friends"] += stats.NewFriends
		totals["regular_members"] += stats.RegularMembers
	}

	httpjson.OK(w, map[string]any{
		"variant":  roles.VariantSuperAdmin.String(),
		"churches": cards,
		"totals":   totals,
	})
}
