// internal/app/features/members/list.go
package members

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/policy/memberpolicy"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/paging"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// memberItem is one roster row in list responses.
type memberItem struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name"`
	Role           string     `json:"role"`
	NewFriend      bool       `json:"is_new_friend"`
	TimerStatus    int        `json:"timer_status"`
	LastAttendance *time.Time `json:"last_attendance,omitempty"`
	DateJoined     time.Time  `json:"date_joined"`
}

func toItem(u models.User) memberItem {
	return memberItem{
		ID:             u.ID.Hex(),
		Email:          u.Email,
		FullName:       u.FullName(),
		Role:           u.Role,
		NewFriend:      u.NewFriend,
		TimerStatus:    u.TimerStatus,
		LastAttendance: u.LastAttendance,
		DateJoined:     u.DateJoined,
	}
}

// listChurch resolves which church a roster request is scoped to. Users
// scoped to one church always get their own; all-church users (superusers
// and admins) pick one with ?church_id.
func listChurch(r *http.Request, scope memberpolicy.ListScope) (primitive.ObjectID, error) {
	if !scope.AllChurches {
		return scope.ChurchID, nil
	}
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

// ServeList handles GET /members. Filters: search (name or email prefix),
// role, status=new|regular; paginated.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	scope := memberpolicy.CanListMembers(r)
	if !scope.CanList {
		httpjson.Error(w, http.StatusForbidden, "you cannot list members")
		return
	}
	churchID, err := listChurch(r, scope)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	q := r.URL.Query()
	filter := userstore.ListFilter{
		ChurchID: churchID,
		Search:   q.Get("search"),
		Role:     q.Get("role"),
	}
	switch q.Get("status") {
	case "new":
		filter.OnlyNew = true
	case "regular":
		filter.OnlyRegular = true
	case "":
	default:
		httpjson.Error(w, http.StatusBadRequest, "status must be new or regular")
		return
	}

	page := paging.Parse(r, paging.MembersPageSize)
	total, err := h.Users.Count(r.Context(), filter)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("count members", err))
		return
	}
	list, err := h.Users.List(r.Context(), filter, page.FindOptions())
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list members", err))
		return
	}

	items := make([]memberItem, 0, len(list))
	for _, u := range list {
		items = append(items, toItem(u))
	}
	httpjson.OK(w, map[string]any{
		"members": items,
		"meta":    paging.MetaFor(page, total),
	})
}
