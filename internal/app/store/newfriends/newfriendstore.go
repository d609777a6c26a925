// internal/app/store/newfriends/newfriendstore.go
package newfriendstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Store provides access to the new_friends collection: one follow-up
// tracking document per new-friend user.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("new_friends")}
}

var (
	ErrNotFound          = errors.New("new friend profile not found")
	ErrDuplicateProfile  = errors.New("user already has a new friend profile")
	ErrBadStatus         = errors.New("unknown follow-up status")
	ErrInvalidTransition = errors.New("follow-up status cannot move backwards")
)

// statusRank orders the forward chain. NOT_INTERESTED sits outside the
// chain: reachable from anywhere, terminal once reached.
var statusRank = map[string]int{
	models.FollowUpPending:    0,
	models.FollowUpContacted:  1,
	models.FollowUpFollowedUp: 2,
	models.FollowUpEngaged:    3,
}

// CanTransition reports whether the follow-up status may move from one
// state to another. Forward moves and repeats are allowed; backward moves
// are not, and NOT_INTERESTED is terminal.
func CanTransition(from, to string) bool {
	if _, ok := statusRank[to]; !ok && to != models.FollowUpNotInterested {
		return false
	}
	if from == models.FollowUpNotInterested {
		return false
	}
	if to == models.FollowUpNotInterested {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	return statusRank[to] >= fromRank
}

// Create inserts the tracking profile for a new-friend user. The caller is
// responsible for ensuring InvitedBy references a non-new-friend user of
// the same church.
func (s *Store) Create(ctx context.Context, nf models.NewFriend) (models.NewFriend, error) {
	nf.ID = primitive.NewObjectID()
	if nf.RegistrationDate.IsZero() {
		nf.RegistrationDate = time.Now().UTC()
	}
	if nf.FollowUpStatus == "" {
		nf.FollowUpStatus = models.FollowUpPending
	}
	if _, ok := statusRank[nf.FollowUpStatus]; !ok && nf.FollowUpStatus != models.FollowUpNotInterested {
		return models.NewFriend{}, ErrBadStatus
	}

	if _, err := s.c.InsertOne(ctx, nf); err != nil {
		if wafflemongo.IsDup(err) {
			return models.NewFriend{}, ErrDuplicateProfile
		}
		return models.NewFriend{}, err
	}
	return nf, nil
}

// GetByUserID loads the profile for a user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.NewFriend, error) {
	var nf models.NewFriend
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&nf)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &nf, nil
}

// ListByChurch returns profiles for a church, optionally narrowed to one
// follow-up status, newest registrations first.
func (s *Store) ListByChurch(ctx context.Context, churchID primitive.ObjectID, status string, opts ...*options.FindOptions) ([]models.NewFriend, error) {
	filter := bson.M{"church_id": churchID}
	if status != "" {
		filter["follow_up_status"] = status
	}
	opts = append(opts, options.Find().SetSort(bson.D{{Key: "registration_date", Value: -1}}))
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.NewFriend
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetFollowUpStatus advances the follow-up chain for a user's profile.
// Backward moves are rejected, NOT_INTERESTED is terminal, and the update
// stamps LastFollowUp.
func (s *Store) SetFollowUpStatus(ctx context.Context, userID primitive.ObjectID, to, notes string) error {
	nf, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !CanTransition(nf.FollowUpStatus, to) {
		if _, ok := statusRank[to]; !ok && to != models.FollowUpNotInterested {
			return ErrBadStatus
		}
		return ErrInvalidTransition
	}

	now := time.Now().UTC()
	set := bson.M{
		"follow_up_status": to,
		"last_follow_up":   now,
	}
	if notes != "" {
		set["follow_up_notes"] = notes
	}
	_, err = s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	return err
}

// CountByStatus returns per-status counts for one church.
func (s *Store) CountByStatus(ctx context.Context, churchID primitive.ObjectID) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"church_id": churchID}}},
		{{Key: "$group", Value: bson.M{"_id": "$follow_up_status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.Count
	}
	return out, cur.Err()
}

// Delete removes the profile for a user.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
