// internal/app/policy/grouppolicy.go
package grouppolicy

import (
	"context"
	"net/http"

	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsLeader returns true if the given user is the leader of the given group
// according to the authoritative groups collection.
func IsLeader(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	c := db.Collection("groups")
	n, err := c.CountDocuments(ctx, bson.M{
		"_id":       groupID,
		"leader_id": userID,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CanManageGroup reports whether the current request user can manage the group:
//   - Superusers and ADMINs always can
//   - VSLs and CSLs can if the group belongs to their own church
//   - CLs can only if they are the leader of this specific group AND the group
//     belongs to their church
//
// Returns an error if the database check fails, allowing callers to distinguish
// between "not authorized" (false, nil) and "database error" (false, err).
func CanManageGroup(ctx context.Context, db *mongo.Database, r *http.Request, groupID, groupChurchID primitive.ObjectID) (bool, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false, nil
	}
	if authz.IsSuperuser(r) || role == roles.Admin {
		return true, nil
	}
	// Everything below is scoped to the user's own church.
	if !authz.CanAccessChurch(r, groupChurchID) {
		return false, nil
	}
	switch role {
	case roles.VSL, roles.CSL:
		return true, nil
	case roles.CL:
		return IsLeader(ctx, db, groupID, uid)
	default:
		return false, nil
	}
}

// CanViewGroup reports whether the current request user can view the group's
// roster and capacity. Any signed-in member of the group's church can view;
// superusers and ADMINs can view across churches.
func CanViewGroup(r *http.Request, groupChurchID primitive.ObjectID) bool {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if role == roles.NewFriend {
		return false
	}
	return authz.CanAccessChurch(r, groupChurchID)
}
