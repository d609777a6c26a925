// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	"github.com/jcsgo/shepherd/internal/app/system/normalize"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Store provides access to the groups collection and the add/remove
// membership operations. Membership itself lives on regular_members
// documents; this store coordinates the two collections.
type Store struct {
	c        *mongo.Collection
	regulars *regularstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups"), regulars: regularstore.New(db)}
}

var (
	ErrNotFound     = errors.New("group not found")
	ErrGroupFull    = errors.New("group is at capacity")
	ErrWrongChurch  = errors.New("member and group belong to different churches")
	ErrNotInGroup   = errors.New("member is not in this group")
	errBadType      = errors.New("group type must be CARE or MINISTRY")
	errNameRequired = errors.New("group name is required")
	errBadCapacity  = errors.New("max members must not be negative")
)

// Create inserts a new group. The caller validates the leader through the
// group policy before calling.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.Name = normalize.Name(g.Name)
	if g.Name == "" {
		return models.Group{}, errNameRequired
	}
	if g.Type != models.GroupTypeCare && g.Type != models.GroupTypeMinistry {
		return models.Group{}, errBadType
	}
	if g.MaxMembers < 0 {
		return models.Group{}, errBadCapacity
	}

	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.Active = true
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByID loads a group by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListByChurch returns a church's groups sorted by name, optionally
// narrowed to one group type.
func (s *Store) ListByChurch(ctx context.Context, churchID primitive.ObjectID, groupType string, opts ...*options.FindOptions) ([]models.Group, error) {
	filter := bson.M{"church_id": churchID, "active": true}
	if groupType != "" {
		filter["group_type"] = groupType
	}
	opts = append(opts, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies a group's mutable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, g models.Group) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if g.Name != "" {
		set["name"] = normalize.Name(g.Name)
		set["name_ci"] = text.Fold(g.Name)
	}
	if g.Description != "" {
		set["description"] = g.Description
	}
	if g.MeetingSchedule != "" {
		set["meeting_schedule"] = g.MeetingSchedule
	}
	if g.MeetingLocation != "" {
		set["meeting_location"] = g.MeetingLocation
	}
	if g.MaxMembers > 0 {
		set["max_members"] = g.MaxMembers
	}
	if !g.LeaderID.IsZero() {
		set["leader_id"] = g.LeaderID
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive flips a group's active flag.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"active":     active,
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

// MemberCount returns the live member count for a group.
func (s *Store) MemberCount(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.regulars.CountByGroup(ctx, groupID)
}

// CapacityPercentage returns the group's fill level as a percentage with
// one decimal of precision. A zero MaxMembers yields 0 rather than a
// division error.
func (s *Store) CapacityPercentage(ctx context.Context, g *models.Group) (float64, error) {
	if g.MaxMembers <= 0 {
		return 0, nil
	}
	n, err := s.regulars.CountByGroup(ctx, g.ID)
	if err != nil {
		return 0, err
	}
	pct := float64(n) / float64(g.MaxMembers) * 100
	return float64(int(pct*10+0.5)) / 10, nil
}

// IsFull reports whether the group has reached MaxMembers.
func (s *Store) IsFull(ctx context.Context, g *models.Group) (bool, error) {
	n, err := s.regulars.CountByGroup(ctx, g.ID)
	if err != nil {
		return false, err
	}
	return n >= int64(g.MaxMembers), nil
}

// AddMember places a regular member into the group after checking church
// scope and capacity. A member already in another group is moved; adding
// a member to the group they are already in changes nothing.
//
// The capacity check and the assignment are two separate operations, so two
// concurrent adds into a group with one free slot can both pass the check
// and the group ends up one over MaxMembers. Counts are live, so the
// overage is visible immediately and an admin can resolve it; serializing
// adds was judged not worth a distributed lock for this workload.
func (s *Store) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	g, err := s.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	rm, err := s.regulars.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if rm.ChurchID != g.ChurchID {
		return ErrWrongChurch
	}
	if rm.GroupID != nil && *rm.GroupID == groupID {
		return nil
	}
	full, err := s.IsFull(ctx, g)
	if err != nil {
		return err
	}
	if full {
		return ErrGroupFull
	}
	return s.regulars.SetGroup(ctx, userID, groupID)
}

// RemoveMember takes a regular member out of the group.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	rm, err := s.regulars.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if rm.GroupID == nil || *rm.GroupID != groupID {
		return ErrNotInGroup
	}
	return s.regulars.ClearGroup(ctx, userID)
}
