package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jcsgo/shepherd/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateChurch creates an active test church with the given name and domain.
func (f *Fixtures) CreateChurch(ctx context.Context, name, domain string) models.Church {
	f.t.Helper()

	now := time.Now().UTC()
	church := models.Church{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Location:  "Rodriguez, Rizal",
		Domain:    domain,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("churches").InsertOne(ctx, church); err != nil {
		f.t.Fatalf("failed to create test church: %v", err)
	}
	return church
}

// CreateInactiveChurch creates a deactivated test church.
func (f *Fixtures) CreateInactiveChurch(ctx context.Context, name, domain string) models.Church {
	f.t.Helper()

	church := f.CreateChurch(ctx, name, domain)
	_, err := f.db.Collection("churches").UpdateByID(ctx, church.ID,
		map[string]any{"$set": map[string]any{"active": false}})
	if err != nil {
		f.t.Fatalf("failed to deactivate test church: %v", err)
	}
	church.Active = false
	return church
}

// CreateSettings creates a settings document for the given church with
// public registration enabled and verification/approval disabled.
func (f *Fixtures) CreateSettings(ctx context.Context, churchID primitive.ObjectID) models.ChurchSettings {
	f.t.Helper()

	now := time.Now().UTC()
	settings := models.ChurchSettings{
		ID:                      primitive.NewObjectID(),
		ChurchID:                churchID,
		AllowPublicRegistration: true,
		ShowNewFriendsCount:     true,
		ShowRegularsCount:       true,
		ShowGrowthCharts:        true,
		AllowMemberDirectory:    true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if _, err := f.db.Collection("church_settings").InsertOne(ctx, settings); err != nil {
		f.t.Fatalf("failed to create test settings: %v", err)
	}
	return settings
}

// CreateUser creates a test user with the given role in the given church.
// The user starts as a regular (non-new-friend) account unless created via
// CreateNewFriendUser.
func (f *Fixtures) CreateUser(ctx context.Context, firstName, lastName, email, role string, churchID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		FullNameCI:    text.Fold(firstName + " " + lastName),
		PasswordHash:  "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtest",
		ChurchID:      churchID,
		Role:          role,
		NewFriend:     false,
		TimerStatus:   5,
		EmailVerified: true,
		Active:        true,
		DateJoined:    now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test church admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, firstName, lastName, email string, churchID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, firstName, lastName, email, "ADMIN", &churchID)
}

// CreateNewFriendUser creates a test user still on the new-friend timer,
// with the given visit count (1..5).
func (f *Fixtures) CreateNewFriendUser(ctx context.Context, firstName, lastName, email string, churchID primitive.ObjectID, timerStatus int) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:          primitive.NewObjectID(),
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		FullNameCI:  text.Fold(firstName + " " + lastName),
		ChurchID:    &churchID,
		Role:        "NEW_FRIEND",
		NewFriend:   true,
		TimerStatus: timerStatus,
		Active:      true,
		DateJoined:  now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test new friend: %v", err)
	}
	return user
}

// CreateNewFriendProfile creates the follow-up tracking document for a
// new-friend user.
func (f *Fixtures) CreateNewFriendProfile(ctx context.Context, userID, churchID primitive.ObjectID, invitedBy *primitive.ObjectID) models.NewFriend {
	f.t.Helper()

	nf := models.NewFriend{
		ID:               primitive.NewObjectID(),
		UserID:           userID,
		ChurchID:         churchID,
		RegistrationDate: time.Now().UTC(),
		InvitedBy:        invitedBy,
		FollowUpStatus:   models.FollowUpPending,
	}

	if _, err := f.db.Collection("new_friends").InsertOne(ctx, nf); err != nil {
		f.t.Fatalf("failed to create test new friend profile: %v", err)
	}
	return nf
}

// CreateRegularMember creates the regular-member profile for a user.
func (f *Fixtures) CreateRegularMember(ctx context.Context, userID, churchID primitive.ObjectID, roleType string) models.RegularMember {
	f.t.Helper()

	now := time.Now().UTC()
	rm := models.RegularMember{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		ChurchID:     churchID,
		RoleType:     roleType,
		Availability: models.AvailabilityAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("regular_members").InsertOne(ctx, rm); err != nil {
		f.t.Fatalf("failed to create test regular member: %v", err)
	}
	return rm
}

// CreateGroup creates an active care group in the given church.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, churchID, leaderID primitive.ObjectID, maxMembers int) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Type:       models.GroupTypeCare,
		ChurchID:   churchID,
		LeaderID:   leaderID,
		MaxMembers: maxMembers,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateAnnouncement creates an active announcement starting now.
func (f *Fixtures) CreateAnnouncement(ctx context.Context, churchID, createdBy primitive.ObjectID, title, priority string) models.Announcement {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Announcement{
		ID:        primitive.NewObjectID(),
		ChurchID:  churchID,
		Title:     title,
		Content:   "Test announcement content.",
		Priority:  priority,
		Active:    true,
		StartDate: now.Add(-time.Hour),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("announcements").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test announcement: %v", err)
	}
	return a
}
