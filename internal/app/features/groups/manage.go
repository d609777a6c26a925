// internal/app/features/groups/manage.go
package groups

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/policy/grouppolicy"
	groupstore "github.com/jcsgo/shepherd/internal/app/store/groups"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// checkLeader verifies that the proposed leader is a regular member of the
// given church. Writes the error response and returns false on failure.
func (h *Handler) checkLeader(w http.ResponseWriter, r *http.Request, leaderID, churchID primitive.ObjectID) bool {
	u, err := h.Users.GetByID(r.Context(), leaderID)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusBadRequest, "leader not found")
			return false
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load leader", err))
		return false
	}
	if u.NewFriend {
		httpjson.Error(w, http.StatusConflict, "a new friend cannot lead a group")
		return false
	}
	if u.ChurchID == nil || *u.ChurchID != churchID {
		httpjson.Error(w, http.StatusBadRequest, "leader must belong to the group's church")
		return false
	}
	return true
}

// HandleCreate handles POST /groups. Admins, VSLs and CSLs may create
// groups for their own church; superusers for any church.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAnyRole(w, r, "you cannot create groups", roles.Admin, roles.VSL, roles.CSL)
	if !g.OK {
		return
	}

	var req struct {
		Name            string `json:"name"`
		Type            string `json:"group_type"`
		ChurchID        string `json:"church_id,omitempty"`
		LeaderID        string `json:"leader_id"`
		Description     string `json:"description,omitempty"`
		MeetingSchedule string `json:"meeting_schedule,omitempty"`
		MeetingLocation string `json:"meeting_location,omitempty"`
		MaxMembers      int    `json:"max_members"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	churchID := authz.UserChurchID(r)
	if req.ChurchID != "" {
		id, err := primitive.ObjectIDFromHex(req.ChurchID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid church_id")
			return
		}
		churchID = id
	}
	if churchID == primitive.NilObjectID {
		httpjson.Error(w, http.StatusBadRequest, "church_id is required")
		return
	}
	if !authz.CanAccessChurch(r, churchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this church")
		return
	}

	leaderID, err := primitive.ObjectIDFromHex(req.LeaderID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid leader_id")
		return
	}
	if !h.checkLeader(w, r, leaderID, churchID) {
		return
	}

	created, err := h.Groups.Create(r.Context(), models.Group{
		Name:            req.Name,
		Type:            req.Type,
		ChurchID:        churchID,
		LeaderID:        leaderID,
		Description:     req.Description,
		MeetingSchedule: req.MeetingSchedule,
		MeetingLocation: req.MeetingLocation,
		MaxMembers:      req.MaxMembers,
	})
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Validation("%s", err.Error()))
		return
	}

	item, err := h.toItem(r, &created)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("count group members", err))
		return
	}
	httpjson.Respond(w, http.StatusCreated, item)
}

// manageTarget loads the group and verifies the acting user may manage it.
func (h *Handler) manageTarget(w http.ResponseWriter, r *http.Request) (*models.Group, bool) {
	id, ok := groupID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid group id")
		return nil, false
	}
	g, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		if err == groupstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "group not found")
			return nil, false
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load group", err))
		return nil, false
	}
	allowed, err := grouppolicy.CanManageGroup(r.Context(), h.DB, r, g.ID, g.ChurchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("check group access", err))
		return nil, false
	}
	if !allowed {
		httpjson.Error(w, http.StatusForbidden, "you cannot manage this group")
		return nil, false
	}
	return g, true
}

// HandleUpdate handles POST /groups/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	target, ok := h.manageTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Name            string `json:"name,omitempty"`
		Description     string `json:"description,omitempty"`
		MeetingSchedule string `json:"meeting_schedule,omitempty"`
		MeetingLocation string `json:"meeting_location,omitempty"`
		MaxMembers      int    `json:"max_members,omitempty"`
		LeaderID        string `json:"leader_id,omitempty"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	upd := models.Group{
		Name:            req.Name,
		Description:     req.Description,
		MeetingSchedule: req.MeetingSchedule,
		MeetingLocation: req.MeetingLocation,
		MaxMembers:      req.MaxMembers,
	}
	if req.LeaderID != "" {
		leaderID, err := primitive.ObjectIDFromHex(req.LeaderID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid leader_id")
			return
		}
		if !h.checkLeader(w, r, leaderID, target.ChurchID) {
			return
		}
		upd.LeaderID = leaderID
	}

	if err := h.Groups.Update(r.Context(), target.ID, upd); err != nil {
		if err == groupstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "group not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("update group", err))
		return
	}
	httpjson.OK(w, map[string]string{"id": target.ID.Hex(), "status": "updated"})
}

// HandleSetActive handles POST /groups/{id}/active. Admin only; deactivated
// groups disappear from listings but keep their member assignments.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can activate or deactivate groups")
	if !g.OK {
		return
	}
	id, ok := groupID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}
	target, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		if err == groupstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "group not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load group", err))
		return
	}
	if !authz.CanAccessChurch(r, target.ChurchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this group")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if err := h.Groups.SetActive(r.Context(), id, req.Active); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("set group active", err))
		return
	}
	httpjson.OK(w, map[string]any{"id": id.Hex(), "active": req.Active})
}

// memberRequest parses the user_id body field common to the membership
// endpoints.
func (h *Handler) memberRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid user_id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// HandleAddMember handles POST /groups/{id}/members. The target must be a
// regular member of the group's church; the group must have room.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	target, ok := h.manageTarget(w, r)
	if !ok {
		return
	}
	userID, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	u, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "user not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load user", err))
		return
	}
	if u.NewFriend || !roles.IsRegularRoleType(u.Role) {
		httpjson.Error(w, http.StatusConflict, "only regular members can join groups")
		return
	}
	if u.ChurchID == nil || *u.ChurchID != target.ChurchID {
		httpjson.Error(w, http.StatusConflict, "member belongs to a different church")
		return
	}

	// A regular user without a profile document gets one here so the
	// assignment has somewhere to live.
	if _, err := h.Regulars.EnsureProfile(r.Context(), userID, target.ChurchID, u.Role); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("ensure member profile", err))
		return
	}

	if err := h.Groups.AddMember(r.Context(), target.ID, userID); err != nil {
		switch err {
		case groupstore.ErrGroupFull:
			httpjson.Error(w, http.StatusConflict, "group is at capacity")
		case groupstore.ErrWrongChurch:
			httpjson.Error(w, http.StatusConflict, "member belongs to a different church")
		case regularstore.ErrNotFound:
			httpjson.Error(w, http.StatusNotFound, "no regular member profile for this user")
		default:
			httpjson.WriteErr(w, h.Log, apperr.Storage("add group member", err))
		}
		return
	}

	churchID := target.ChurchID
	h.Activity.GroupJoin(r.Context(), userID, &churchID, target.ID)

	n, err := h.Groups.MemberCount(r.Context(), target.ID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("count group members", err))
		return
	}
	httpjson.OK(w, map[string]any{
		"group_id":     target.ID.Hex(),
		"user_id":      userID.Hex(),
		"member_count": n,
	})
}

// HandleRemoveMember handles POST /groups/{id}/members/remove. Group
// managers may remove anyone; members may remove themselves.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, ok := groupID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}
	target, err := h.Groups.GetByID(r.Context(), id)
	if err != nil {
		if err == groupstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "group not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load group", err))
		return
	}
	userID, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	if userID != g.UserID {
		allowed, err := grouppolicy.CanManageGroup(r.Context(), h.DB, r, target.ID, target.ChurchID)
		if err != nil {
			httpjson.WriteErr(w, h.Log, apperr.Storage("check group access", err))
			return
		}
		if !allowed {
			httpjson.Error(w, http.StatusForbidden, "you cannot remove members from this group")
			return
		}
	}

	if err := h.Groups.RemoveMember(r.Context(), target.ID, userID); err != nil {
		switch err {
		case groupstore.ErrNotInGroup:
			httpjson.Error(w, http.StatusConflict, "member is not in this group")
		case regularstore.ErrNotFound:
			httpjson.Error(w, http.StatusNotFound, "no regular member profile for this user")
		default:
			httpjson.WriteErr(w, h.Log, apperr.Storage("remove group member", err))
		}
		return
	}

	churchID := target.ChurchID
	h.Activity.GroupLeave(r.Context(), userID, &churchID, target.ID)
	httpjson.OK(w, map[string]string{
		"group_id": target.ID.Hex(),
		"user_id":  userID.Hex(),
	})
}
