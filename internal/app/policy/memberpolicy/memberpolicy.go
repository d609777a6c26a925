// Package memberpolicy provides authorization policies for member management.
//
// Authorization rules:
//   - Superusers and ADMINs can view and manage members across all churches
//   - VSLs, CSLs, and CLs can view and manage members within their own church
//   - CMs can view members within their own church but cannot manage them
//   - New friends cannot access member management
package memberpolicy

import (
	"context"
	"net/http"

	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemberInfo contains the minimal member data needed for authorization checks.
type MemberInfo struct {
	ID       primitive.ObjectID
	ChurchID *primitive.ObjectID
}

// ListScope represents the scope of members a user can list.
type ListScope struct {
	// CanList indicates whether the user can list members at all.
	CanList bool
	// AllChurches indicates whether the user can see members from every
	// church. If false, ChurchID is the single church the user is scoped to.
	AllChurches bool
	// ChurchID is the church the user is restricted to.
	ChurchID primitive.ObjectID
}

// CanListMembers determines what scope of members the current user can list.
//
// Authorization:
//   - Superuser / ADMIN: all members from all churches
//   - VSL / CSL / CL / CM: members of their own church
//   - New friends: cannot list members
func CanListMembers(r *http.Request) ListScope {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return ListScope{CanList: false}
	}
	if authz.IsSuperuser(r) || role == roles.Admin {
		return ListScope{CanList: true, AllChurches: true}
	}
	if role == roles.NewFriend {
		return ListScope{CanList: false}
	}
	churchID := authz.UserChurchID(r)
	if churchID == primitive.NilObjectID {
		return ListScope{CanList: false}
	}
	return ListScope{CanList: true, AllChurches: false, ChurchID: churchID}
}

// CanViewMember reports whether the current user can view the specified
// member's record. Regular members of any role can view records within their
// own church; superusers and ADMINs can view any record.
func CanViewMember(r *http.Request, memberChurchID *primitive.ObjectID) bool {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if authz.IsSuperuser(r) || role == roles.Admin {
		return true
	}
	if role == roles.NewFriend {
		return false
	}
	if memberChurchID == nil {
		return false
	}
	return authz.CanAccessChurch(r, *memberChurchID)
}

// CanManageMember reports whether the current user can edit the specified
// member's record, change their role, or record lifecycle transitions.
//
// Authorization:
//   - Superuser / ADMIN: any member
//   - VSL / CSL / CL: members of their own church
//   - CM and new friends: cannot manage members
func CanManageMember(r *http.Request, memberChurchID *primitive.ObjectID) bool {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if authz.IsSuperuser(r) || role == roles.Admin {
		return true
	}
	if !authz.IsLeader(r) {
		return false
	}
	if memberChurchID == nil {
		return false
	}
	return authz.CanAccessChurch(r, *memberChurchID)
}

// FetchMemberInfo retrieves the minimal member information needed for
// authorization. Returns nil if no user with the given ID exists.
func FetchMemberInfo(ctx context.Context, db *mongo.Database, memberID primitive.ObjectID) (*MemberInfo, error) {
	var result struct {
		ID       primitive.ObjectID  `bson:"_id"`
		ChurchID *primitive.ObjectID `bson:"church_id"`
	}

	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"church_id": 1,
	})

	err := db.Collection("users").FindOne(ctx, bson.M{"_id": memberID}, proj).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &MemberInfo{ID: result.ID, ChurchID: result.ChurchID}, nil
}

// CheckMemberAccess fetches member info and checks whether the current user
// can view them. It combines FetchMemberInfo and CanViewMember.
//
// Returns:
//   - (memberInfo, true, nil) if user can access the member
//   - (memberInfo, false, nil) if member exists but user cannot access
//   - (nil, false, nil) if member not found
//   - (nil, false, err) if database error
func CheckMemberAccess(ctx context.Context, db *mongo.Database, r *http.Request, memberID primitive.ObjectID) (*MemberInfo, bool, error) {
	info, err := FetchMemberInfo(ctx, db, memberID)
	if err != nil {
		return nil, false, err
	}
	if info == nil {
		return nil, false, nil
	}
	return info, CanViewMember(r, info.ChurchID), nil
}
