// internal/app/features/login/handler.go
package login

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	"github.com/jcsgo/shepherd/internal/app/store/emailverify"
	settingsstore "github.com/jcsgo/shepherd/internal/app/store/settings"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/auth"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/mailer"
	"github.com/jcsgo/shepherd/internal/app/system/ratelimit"
)

// Handler authenticates users against their church-scoped email address.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Activity *activitylog.Logger
	Users    *userstore.Store
	Churches *churchstore.Store
	Settings *settingsstore.Store
	Verify   *emailverify.Store

	// Limits and Mail are optional; both are nil-safe and are set by the
	// bootstrap wiring.
	Limits *ratelimit.LoginLimiter
	Mail   *mailer.Mailer
}

func NewHandler(db *mongo.Database, verify *emailverify.Store, activity *activitylog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Activity: activity,
		Users:    userstore.New(db),
		Churches: churchstore.New(db),
		Settings: settingsstore.New(db),
		Verify:   verify,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /login.
//
// The church is derived from the email address, never from a form field, so
// a member of one church cannot sign in through another church's page. All
// authentication failures return the same 401 message; which part failed is
// not disclosed.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if ok, reason := h.Limits.Check(r, req.Email); !ok {
		httpjson.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load user", err))
		return
	}
	if !u.Active || !authutil.CheckPassword(u.PasswordHash, req.Password) {
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	su := auth.SessionUser{
		ID:        u.ID.Hex(),
		Name:      u.FullName(),
		Email:     u.Email,
		Role:      u.Role,
		Superuser: u.Superuser,
	}

	// Superusers are not bound to a church; everyone else signs in through
	// an active church.
	if !u.Superuser {
		if u.ChurchID == nil {
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		ch, err := h.Churches.GetByID(r.Context(), *u.ChurchID)
		if err != nil {
			if err == churchstore.ErrNotFound {
				httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
				return
			}
			httpjson.WriteErr(w, h.Log, apperr.Storage("load church", err))
			return
		}
		if !ch.Active {
			httpjson.Error(w, http.StatusForbidden, "this church is not currently active")
			return
		}

		cfg, err := h.Settings.Get(r.Context(), ch.ID)
		if err != nil {
			httpjson.WriteErr(w, h.Log, apperr.Storage("load church settings", err))
			return
		}
		if cfg.RequireEmailVerification && !u.EmailVerified {
			httpjson.Error(w, http.StatusForbidden, "email address not verified")
			return
		}

		su.ChurchID = ch.ID.Hex()
		su.ChurchDomain = ch.Domain
	}

	if err := auth.SignIn(w, r, su); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("establish session", err))
		return
	}
	h.Limits.ResetEmail(req.Email)
	h.Activity.Login(r.Context(), r, u.ID, u.ChurchID)

	httpjson.OK(w, map[string]any{
		"id":            u.ID.Hex(),
		"full_name":     u.FullName(),
		"role":          u.Role,
		"church_domain": su.ChurchDomain,
		"is_new_friend": u.NewFriend,
		"superuser":     u.Superuser,
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// HandleVerifyEmail handles POST /login/verify. The user submits the code
// from their verification email; a successful match flips EmailVerified.
func (h *Handler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if req.Email == "" || req.Code == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and code are required")
		return
	}

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.Error(w, http.StatusBadRequest, "invalid or expired code")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load user", err))
		return
	}

	if _, err := h.Verify.VerifyCode(r.Context(), u.ID, req.Code); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid or expired code")
		return
	}
	if err := h.Users.SetEmailVerified(r.Context(), u.ID); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("mark email verified", err))
		return
	}
	httpjson.OK(w, map[string]string{"status": "verified"})
}

// HandleVerifyLink handles GET /login/verify?token=. This backs the magic
// link in the verification email.
func (h *Handler) HandleVerifyLink(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpjson.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	v, err := h.Verify.VerifyToken(r.Context(), token)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid or expired link")
		return
	}
	if err := h.Users.SetEmailVerified(r.Context(), v.UserID); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("mark email verified", err))
		return
	}
	httpjson.OK(w, map[string]string{"status": "verified"})
}

type resendRequest struct {
	Email string `json:"email"`
}

// HandleResend handles POST /login/resend. The response never reveals
// whether the account exists; resends are rate limited per account.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if req.Email == "" {
		httpjson.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	if ok, reason := h.Limits.Check(r, req.Email); !ok {
		httpjson.Error(w, http.StatusTooManyRequests, reason)
		return
	}

	sent := map[string]string{"status": "if the account exists, a new code has been sent"}

	u, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == userstore.ErrNotFound {
			httpjson.OK(w, sent)
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load user", err))
		return
	}
	if u.EmailVerified {
		httpjson.OK(w, sent)
		return
	}

	res, err := h.Verify.Create(r.Context(), u.ID, u.Email, true)
	if err != nil {
		if err == emailverify.ErrTooManyResends {
			httpjson.Error(w, http.StatusTooManyRequests, "too many resend requests, wait a few minutes")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("create verification", err))
		return
	}
	if err := h.Mail.SendVerification(r.Context(), u.Email, res.Code, res.Token); err != nil {
		h.Log.Error("resend verification email", zap.Error(err))
	}
	httpjson.OK(w, sent)
}
