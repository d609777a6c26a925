// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/auth"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
)

// Handler clears the session cookie and records the logout.
type Handler struct {
	Log      *zap.Logger
	Activity *activitylog.Logger
}

func NewHandler(activity *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, Activity: activity}
}

// HandleLogout handles POST /logout. Signing out while not signed in is
// not an error.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	_, _, uid, signedIn := authz.UserCtx(r)

	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("clear session", zap.Error(err))
	}
	if signedIn {
		var churchID *primitive.ObjectID
		if cid := authz.UserChurchID(r); cid != primitive.NilObjectID {
			churchID = &cid
		}
		h.Activity.Logout(r.Context(), r, uid, churchID)
	}
	httpjson.OK(w, map[string]string{"status": "signed_out"})
}
