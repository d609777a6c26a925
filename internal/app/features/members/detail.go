// internal/app/features/members/detail.go
package members

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/policy/memberpolicy"
	"github.com/jcsgo/shepherd/internal/app/store/activity"
	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/paging"
)

const recentActivityCount = 10

// memberID parses the {id} route parameter.
func memberID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ServeDetail handles GET /members/{id}: the user record, whichever
// lifecycle profile they carry, and their recent activity.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid member id")
		return
	}

	info, allowed, err := memberpolicy.CheckMemberAccess(r.Context(), h.DB, r, id)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("check member access", err))
		return
	}
	if info == nil {
		httpjson.Error(w, http.StatusNotFound, "member not found")
		return
	}
	if !allowed {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this member")
		return
	}

	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load member", err))
		return
	}

	resp := map[string]any{"member": u}

	if u.NewFriend {
		nf, err := h.NewFriends.GetByUserID(r.Context(), id)
		if err != nil && err != newfriendstore.ErrNotFound {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load new friend profile", err))
			return
		}
		if nf != nil {
			resp["new_friend_profile"] = nf
		}
	} else {
		rm, err := h.Regulars.GetByUserID(r.Context(), id)
		if err != nil && err != regularstore.ErrNotFound {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load regular profile", err))
			return
		}
		if rm != nil {
			resp["regular_profile"] = rm
		}
	}

	recent, err := h.Activities.List(r.Context(), activity.Filter{UserID: &id},
		paging.Page{Number: 1, PerPage: recentActivityCount}.FindOptions())
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load recent activity", err))
		return
	}
	resp["recent_activity"] = recent

	httpjson.OK(w, resp)
}
