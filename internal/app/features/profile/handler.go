// internal/app/features/profile/handler.go
package profile

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
)

// Handler serves the signed-in user's own profile: viewing, editing, and
// password changes. Anything touching other users lives in the members
// feature.
type Handler struct {
	Log        *zap.Logger
	Activity   *activitylog.Logger
	Users      *userstore.Store
	NewFriends *newfriendstore.Store
	Regulars   *regularstore.Store
}

func NewHandler(db *mongo.Database, act *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		Activity:   act,
		Users:      userstore.New(db),
		NewFriends: newfriendstore.New(db),
		Regulars:   regularstore.New(db),
	}
}

// Serve handles GET /profile: the user's own record plus whichever
// lifecycle profile they carry.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	u, err := h.Users.GetByID(r.Context(), g.UserID)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "account not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load profile", err))
		return
	}

	resp := map[string]any{"user": u}
	if u.NewFriend {
		if nf, err := h.NewFriends.GetByUserID(r.Context(), u.ID); err == nil {
			resp["new_friend_profile"] = nf
		} else if err != newfriendstore.ErrNotFound {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load new friend profile", err))
			return
		}
	} else {
		if rm, err := h.Regulars.GetByUserID(r.Context(), u.ID); err == nil {
			resp["regular_profile"] = rm
		} else if err != regularstore.ErrNotFound {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load regular profile", err))
			return
		}
	}
	httpjson.OK(w, resp)
}

// HandleUpdate handles POST /profile: self-service edits to contact fields.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
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

	if err := h.Users.UpdateProfile(r.Context(), g.UserID, upd); err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "account not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Validation("%s", err.Error()))
		return
	}

	u, err := h.Users.GetByID(r.Context(), g.UserID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("reload profile", err))
		return
	}

	h.Activity.ProfileUpdate(r.Context(), g.UserID, u.ChurchID, g.UserID)
	httpjson.OK(w, map[string]any{"user": u})
}

// HandlePassword handles POST /profile/password. The current password must
// check out before the new one is accepted.
func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	u, err := h.Users.GetByID(r.Context(), g.UserID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load account", err))
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		httpjson.Error(w, http.StatusForbidden, "current password is incorrect")
		return
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Validation("%s", err.Error()))
		return
	}
	if err := h.Users.SetPasswordHash(r.Context(), g.UserID, hash); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("set password", err))
		return
	}
	httpjson.OK(w, map[string]string{"status": "password changed"})
}
