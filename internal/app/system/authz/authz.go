// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
)

// UserCtx returns the user's role (uppercased), name, Mongo ObjectID, and a
// found flag. If no user is present in context or the user ID is malformed,
// it returns "", "", NilObjectID, false so callers can trust that ok=true
// means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "", "", primitive.NilObjectID, false
	}
	return strings.ToUpper(user.Role), user.Name, userID, true
}

// IsSuperuser reports whether the current request's user is a superuser.
func IsSuperuser(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	return ok && user.Superuser
}

// IsAdmin reports whether the current request's user is a church admin.
// Superusers count as admins for permission purposes.
func IsAdmin(r *http.Request) bool {
	if IsSuperuser(r) {
		return true
	}
	role, _, _, ok := UserCtx(r)
	return ok && role == roles.Admin
}

// IsLeader reports whether the current request's user holds any leadership
// role (VSL, CSL, or CL).
func IsLeader(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	return role == roles.VSL || role == roles.CSL || role == roles.CL
}

// IsNewFriend reports whether the current request's user is still in the
// new-friend stage.
func IsNewFriend(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == roles.NewFriend
}

// UserChurchID returns the current user's church ID as an ObjectID.
// Returns NilObjectID if the user is not signed in or has no church.
func UserChurchID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ChurchID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.ChurchID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessChurch reports whether the current user may view or act on data
// belonging to the church identified by churchID. Superusers and church
// admins may reach any church; everyone else is confined to their own.
func CanAccessChurch(r *http.Request, churchID primitive.ObjectID) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	if user.Superuser {
		return true
	}
	if strings.ToUpper(user.Role) == roles.Admin {
		return true
	}
	own := UserChurchID(r)
	return !own.IsZero() && own == churchID
}

// HasPermissionLevel reports whether the current user's role meets the given
// permission level using the default permission table. Superusers always pass.
func HasPermissionLevel(r *http.Request, level int) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	if user.Superuser {
		return true
	}
	return roles.DefaultPermissions().Level(strings.ToUpper(user.Role)) >= level
}
