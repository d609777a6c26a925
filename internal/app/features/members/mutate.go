// internal/app/features/members/mutate.go
package members

import (
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/policy/memberpolicy"
	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
)

// manageTarget fetches the target member and verifies the acting user may
// manage them. On failure the response has been written and ok is false.
func (h *Handler) manageTarget(w http.ResponseWriter, r *http.Request) (id primitive.ObjectID, churchID *primitive.ObjectID, ok bool) {
	id, valid := memberID(r)
	if !valid {
		httpjson.Error(w, http.StatusBadRequest, "invalid member id")
		return id, nil, false
	}
	info, err := memberpolicy.FetchMemberInfo(r.Context(), h.DB, id)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load member", err))
		return id, nil, false
	}
	if info == nil {
		httpjson.Error(w, http.StatusNotFound, "member not found")
		return id, nil, false
	}
	if !memberpolicy.CanManageMember(r, info.ChurchID) {
		httpjson.Error(w, http.StatusForbidden, "you cannot manage this member")
		return id, nil, false
	}
	return id, info.ChurchID, true
}

// HandleTimerStatus handles POST /members/{id}/timer. Setting 5 promotes
// the new friend to regular membership.
func (h *Handler) HandleTimerStatus(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, churchID, ok := h.manageTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Status int `json:"status"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	u, err := h.Lifecycle.UpdateTimerStatus(r.Context(), id, req.Status)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	h.Activity.StatusChange(r.Context(), g.UserID, churchID, id,
		fmt.Sprintf("timer status set to %d", req.Status))
	httpjson.OK(w, map[string]any{
		"id":            u.ID.Hex(),
		"timer_status":  u.TimerStatus,
		"is_new_friend": u.NewFriend,
		"role":          u.Role,
	})
}

// HandleAttendance handles POST /members/{id}/attendance. It stamps the
// attendance time only; the visit timer moves through the timer endpoint.
func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, churchID, ok := h.manageTarget(w, r)
	if !ok {
		return
	}

	u, err := h.Lifecycle.RecordAttendance(r.Context(), id)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	h.Activity.Attendance(r.Context(), g.UserID, churchID, id)
	httpjson.OK(w, map[string]any{
		"id":              u.ID.Hex(),
		"timer_status":    u.TimerStatus,
		"is_new_friend":   u.NewFriend,
		"last_attendance": u.LastAttendance,
	})
}

// HandleFollowUp handles POST /members/{id}/follow-up. The chain only moves
// forward; NOT_INTERESTED is terminal and reachable from any state.
func (h *Handler) HandleFollowUp(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, churchID, ok := h.manageTarget(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes,omitempty"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	if err := h.NewFriends.SetFollowUpStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		switch err {
		case newfriendstore.ErrNotFound:
			httpjson.Error(w, http.StatusNotFound, "no new friend profile for this member")
		case newfriendstore.ErrBadStatus:
			httpjson.Error(w, http.StatusBadRequest, err.Error())
		case newfriendstore.ErrInvalidTransition:
			httpjson.Error(w, http.StatusConflict, err.Error())
		default:
			httpjson.WriteErr(w, h.Log, apperr.Storage("set follow-up status", err))
		}
		return
	}

	h.Activity.FollowUp(r.Context(), g.UserID, churchID, id, req.Status)
	httpjson.OK(w, map[string]string{"status": req.Status})
}

// HandleSetRole handles POST /members/{id}/role. Admin only; the new role
// must be a regular member role and the member must already be regular.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can change roles")
	if !g.OK {
		return
	}
	id, ok := memberID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if !roles.IsRegularRoleType(req.Role) {
		httpjson.Error(w, http.StatusBadRequest, "role must be one of VSL, CSL, CL, CM")
		return
	}

	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load member", err))
		return
	}
	if u.ChurchID != nil && !authz.CanAccessChurch(r, *u.ChurchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this member")
		return
	}
	if u.NewFriend {
		httpjson.Error(w, http.StatusConflict, "new friends cannot hold a regular role")
		return
	}

	if err := h.Users.SetRole(r.Context(), id, req.Role); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("set role", err))
		return
	}
	if err := h.Regulars.SetRoleType(r.Context(), id, req.Role); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("set profile role type", err))
		return
	}

	h.Activity.RoleChange(r.Context(), g.UserID, u.ChurchID, id, req.Role)
	httpjson.OK(w, map[string]string{"id": id.Hex(), "role": req.Role})
}

// HandleUpdateProfile handles POST /members/{id}/profile. Members may edit
// their own profile; leadership may edit members of their church.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	id, ok := memberID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid member id")
		return
	}

	if g.UserID != id {
		info, err := memberpolicy.FetchMemberInfo(r.Context(), h.DB, id)
		if err != nil {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load member", err))
			return
		}
		if info == nil {
			httpjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		if !memberpolicy.CanManageMember(r, info.ChurchID) {
			httpjson.Error(w, http.StatusForbidden, "you cannot edit this member")
			return
		}
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone,omitempty"`
		Address   string `json:"address,omitempty"`
		BirthDate string `json:"birth_date,omitempty"` // YYYY-MM-DD
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	upd := userstore.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.Phone,
		Address:     req.Address,
	}
	if req.BirthDate != "" {
		bd, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "birth_date must be YYYY-MM-DD")
			return
		}
		upd.BirthDate = &bd
	}

	if err := h.Users.UpdateProfile(r.Context(), id, upd); err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Validation("%s", err.Error()))
		return
	}

	var churchID *primitive.ObjectID
	if cid := authz.UserChurchID(r); cid != primitive.NilObjectID {
		churchID = &cid
	}
	h.Activity.ProfileUpdate(r.Context(), g.UserID, churchID, id)
	httpjson.OK(w, map[string]string{"status": "updated"})
}
