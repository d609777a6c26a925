// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization inside a handler body and
// write the error response themselves when a check fails.
//
// Route-level middleware (auth.RequireSignedIn, auth.RequireRole) covers
// groups of routes with uniform requirements. Gates cover handlers that need
// a different check than their route group, and the policy layer
// (internal/app/policy/*) covers checks that need a database lookup.
// Handlers behind role-specific middleware should use authz.UserCtx instead
// of re-checking with a gate.
package gates

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/system/authz"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RequireAuth ensures a user is authenticated. If not, it writes a 401
// response and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and is a church admin or
// superuser. Writes 401/403 and returns OK=false otherwise.
func RequireAdmin(w http.ResponseWriter, r *http.Request, forbiddenMsg string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	if !authz.IsAdmin(r) {
		deny(w, http.StatusForbidden, forbiddenMsg)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireLeadership ensures the user is authenticated and is an admin,
// superuser, or holds a leadership role (VSL, CSL, CL).
func RequireLeadership(w http.ResponseWriter, r *http.Request, forbiddenMsg string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	if !authz.IsAdmin(r) && !authz.IsLeader(r) {
		deny(w, http.StatusForbidden, forbiddenMsg)
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAnyRole ensures the user is authenticated and holds one of the
// given roles. Superusers always pass.
func RequireAnyRole(w http.ResponseWriter, r *http.Request, forbiddenMsg string, allowed ...string) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	if authz.IsSuperuser(r) {
		return Result{Role: role, Name: name, UserID: uid, OK: true}
	}
	for _, a := range allowed {
		if role == a {
			return Result{Role: role, Name: name, UserID: uid, OK: true}
		}
	}
	deny(w, http.StatusForbidden, forbiddenMsg)
	return Result{OK: false}
}

// RequireChurchAccess ensures the user is authenticated and may act on the
// given church. Writes 401/403 and returns OK=false otherwise.
func RequireChurchAccess(w http.ResponseWriter, r *http.Request, churchID primitive.ObjectID) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		deny(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	if !authz.CanAccessChurch(r, churchID) {
		deny(w, http.StatusForbidden, "you do not have access to this church")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}
