package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID           string
	Name         string
	Email        string
	Role         string
	ChurchID     string
	ChurchDomain string
	Superuser    bool
}

// SessionKey returns a random key suitable for auth.InitSessionStore in
// tests that exercise real cookie round-trips.
func SessionKey() string {
	return string(securecookie.GenerateRandomKey(32))
}

// SuperUser returns a TestUser with the superuser flag set.
func SuperUser() TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Test Superuser",
		Email:     "super@jcsgo.com",
		Role:      "ADMIN",
		Superuser: true,
	}
}

// AdminUser returns a TestUser with the church admin role.
func AdminUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Email:    "admin@kasiglahan.jcsgo.com",
		Role:     "ADMIN",
		ChurchID: churchID.Hex(),
	}
}

// LeaderUser returns a TestUser with a cell leader role in the given church.
func LeaderUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Leader",
		Email:    "leader@kasiglahan.jcsgo.com",
		Role:     "CL",
		ChurchID: churchID.Hex(),
	}
}

// MemberUser returns a TestUser with the church member role.
func MemberUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Member",
		Email:    "member@kasiglahan.jcsgo.com",
		Role:     "CM",
		ChurchID: churchID.Hex(),
	}
}

// NewFriendUser returns a TestUser still on the new-friend timer.
func NewFriendUser(churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Friend",
		Email:    "friend@kasiglahan.jcsgo.com",
		Role:     "NEW_FRIEND",
		ChurchID: churchID.Hex(),
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the user
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		ChurchID:     user.ChurchID,
		ChurchDomain: user.ChurchDomain,
		Superuser:    user.Superuser,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}
