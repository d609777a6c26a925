// internal/app/features/groups/groups.go
package groups

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/policy/grouppolicy"
	groupstore "github.com/jcsgo/shepherd/internal/app/store/groups"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// groupItem is one group in list and detail responses. Counts are computed
// live from regular member assignments, never cached on the group document.
type groupItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Type            string  `json:"group_type"`
	LeaderID        string  `json:"leader_id"`
	Description     string  `json:"description,omitempty"`
	MeetingSchedule string  `json:"meeting_schedule,omitempty"`
	MeetingLocation string  `json:"meeting_location,omitempty"`
	MaxMembers      int     `json:"max_members"`
	MemberCount     int64   `json:"member_count"`
	CapacityPct     float64 `json:"capacity_percentage"`
	IsFull          bool    `json:"is_full"`
}

func (h *Handler) toItem(r *http.Request, g *models.Group) (groupItem, error) {
	n, err := h.Groups.MemberCount(r.Context(), g.ID)
	if err != nil {
		return groupItem{}, err
	}
	pct, err := h.Groups.CapacityPercentage(r.Context(), g)
	if err != nil {
		return groupItem{}, err
	}
	return groupItem{
		ID:              g.ID.Hex(),
		Name:            g.Name,
		Type:            g.Type,
		LeaderID:        g.LeaderID.Hex(),
		Description:     g.Description,
		MeetingSchedule: g.MeetingSchedule,
		MeetingLocation: g.MeetingLocation,
		MaxMembers:      g.MaxMembers,
		MemberCount:     n,
		CapacityPct:     pct,
		IsFull:          n >= int64(g.MaxMembers),
	}, nil
}

func groupID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// listChurch resolves which church's groups are requested. Superusers pick
// one with ?church_id; everyone else gets their own church.
func listChurch(r *http.Request) (primitive.ObjectID, error) {
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

// ServeList handles GET /groups. Optional filter: type=CARE|MINISTRY.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	churchID, err := listChurch(r)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if !grouppolicy.CanViewGroup(r, churchID) {
		httpjson.Error(w, http.StatusForbidden, "you cannot view this church's groups")
		return
	}

	groupType := r.URL.Query().Get("type")
	switch groupType {
	case "", models.GroupTypeCare, models.GroupTypeMinistry:
	default:
		httpjson.Error(w, http.StatusBadRequest, "type must be CARE or MINISTRY")
		return
	}

	list, err := h.Groups.ListByChurch(r.Context(), churchID, groupType)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list groups", err))
		return
	}

	items := make([]groupItem, 0, len(list))
	for i := range list {
		item, err := h.toItem(r, &list[i])
		if err != nil {
			httpjson.WriteErr(w, h.Log, apperr.Storage("count group members", err))
			return
		}
		items = append(items, item)
	}
	httpjson.OK(w, map[string]any{"groups": items})
}

// rosterEntry is one member row in a group detail response.
type rosterEntry struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	RoleType string `json:"role_type"`
}

// ServeDetail handles GET /groups/{id}: the group with live capacity and
// its current roster.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}
	g, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		if err == groupstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "group not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load group", err))
		return
	}
	if !grouppolicy.CanViewGroup(r, g.ChurchID) {
		httpjson.Error(w, http.StatusForbidden, "you cannot view this group")
		return
	}

	item, err := h.toItem(r, g)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("count group members", err))
		return
	}

	profiles, err := h.Regulars.ListByGroup(r.Context(), id)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load roster", err))
		return
	}
	roster := make([]rosterEntry, 0, len(profiles))
	for _, rm := range profiles {
		entry := rosterEntry{UserID: rm.UserID.Hex(), RoleType: rm.RoleType}
		if u, err := h.Users.GetByID(r.Context(), rm.UserID); err == nil {
			entry.FullName = u.FullName()
			entry.Email = u.Email
		} else if err != userstore.ErrNotFound {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load roster member", err))
			return
		}
		roster = append(roster, entry)
	}

	httpjson.OK(w, map[string]any{
		"group":   item,
		"members": roster,
	})
}
