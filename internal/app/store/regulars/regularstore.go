// internal/app/store/regulars/regularstore.go
package regularstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Store provides access to the regular_members collection: one membership
// profile per user past the new-friend timer. GroupID on these documents is
// the only record of group membership.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("regular_members")}
}

var (
	ErrNotFound         = errors.New("regular member profile not found")
	ErrDuplicateProfile = errors.New("user already has a regular member profile")
	errBadRoleType      = errors.New("role type must be one of VSL, CSL, CL, CM")
	errBadAvailability  = errors.New("unknown availability value")
)

func validAvailability(a string) bool {
	switch a {
	case models.AvailabilityAvailable, models.AvailabilityLimited, models.AvailabilityUnavailable:
		return true
	}
	return false
}

// Create inserts the membership profile for a user. RoleType must be one of
// the regular member role types; ADMIN and NEW_FRIEND never get a profile.
func (s *Store) Create(ctx context.Context, rm models.RegularMember) (models.RegularMember, error) {
	if !roles.IsRegularRoleType(rm.RoleType) {
		return models.RegularMember{}, errBadRoleType
	}
	if rm.Availability == "" {
		rm.Availability = models.AvailabilityAvailable
	}
	if !validAvailability(rm.Availability) {
		return models.RegularMember{}, errBadAvailability
	}

	now := time.Now().UTC()
	rm.ID = primitive.NewObjectID()
	if rm.MembershipDate == nil {
		rm.MembershipDate = &now
	}
	rm.CreatedAt = now
	rm.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, rm); err != nil {
		if wafflemongo.IsDup(err) {
			return models.RegularMember{}, ErrDuplicateProfile
		}
		return models.RegularMember{}, err
	}
	return rm, nil
}

// EnsureProfile creates the profile if the user does not have one yet.
// Used by the lifecycle transition, which must be safe to re-run.
func (s *Store) EnsureProfile(ctx context.Context, userID, churchID primitive.ObjectID, roleType string) (models.RegularMember, error) {
	existing, err := s.GetByUserID(ctx, userID)
	if err == nil {
		return *existing, nil
	}
	if err != ErrNotFound {
		return models.RegularMember{}, err
	}
	rm, err := s.Create(ctx, models.RegularMember{
		UserID:   userID,
		ChurchID: churchID,
		RoleType: roleType,
	})
	if err == ErrDuplicateProfile {
		// Lost a race with a concurrent transition; the profile exists now.
		existing, gerr := s.GetByUserID(ctx, userID)
		if gerr != nil {
			return models.RegularMember{}, gerr
		}
		return *existing, nil
	}
	return rm, err
}

// GetByUserID loads the profile for a user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.RegularMember, error) {
	var rm models.RegularMember
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rm)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// ListByChurch returns profiles for a church, optionally narrowed to one
// role type.
func (s *Store) ListByChurch(ctx context.Context, churchID primitive.ObjectID, roleType string, opts ...*options.FindOptions) ([]models.RegularMember, error) {
	filter := bson.M{"church_id": churchID}
	if roleType != "" {
		filter["role_type"] = roleType
	}
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.RegularMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByGroup returns the profiles currently assigned to a group.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.RegularMember, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.RegularMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByGroup counts members currently assigned to a group. Group sizes
// are always derived this way, never from a stored counter.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}

// SetRoleType changes a member's role type within the regular set.
func (s *Store) SetRoleType(ctx context.Context, userID primitive.ObjectID, roleType string) error {
	if !roles.IsRegularRoleType(roleType) {
		return errBadRoleType
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"role_type":  roleType,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetGroup assigns the member to a group.
func (s *Store) SetGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"group_id":   groupID,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearGroup removes the member from whatever group they are in.
func (s *Store) ClearGroup(ctx context.Context, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$unset": bson.M{"group_id": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate holds the editable membership profile fields.
type ProfileUpdate struct {
	MinistryInvolvement string
	Skills              string
	Availability        string
	BaptismDate         *time.Time
}

// UpdateProfile updates the ministry-facing profile fields.
func (s *Store) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{
		"ministry_involvement": upd.MinistryInvolvement,
		"skills":               upd.Skills,
		"updated_at":           time.Now().UTC(),
	}
	if upd.Availability != "" {
		if !validAvailability(upd.Availability) {
			return errBadAvailability
		}
		set["availability"] = upd.Availability
	}
	if upd.BaptismDate != nil {
		set["baptism_date"] = upd.BaptismDate
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRoleType returns per-role-type counts for one church, used by the
// dashboard composition percentages.
func (s *Store) CountByRoleType(ctx context.Context, churchID primitive.ObjectID) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"church_id": churchID}}},
		{{Key: "$group", Value: bson.M{"_id": "$role_type", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			RoleType string `bson:"_id"`
			Count    int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.RoleType] = row.Count
	}
	return out, cur.Err()
}
