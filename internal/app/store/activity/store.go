// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Action kinds for the activity log.
const (
	ActionLogin         = "LOGIN"
	ActionLogout        = "LOGOUT"
	ActionRegister      = "REGISTER"
	ActionProfileUpdate = "PROFILE_UPDATE"
	ActionRoleChange    = "ROLE_CHANGE"
	ActionStatusChange  = "STATUS_CHANGE"
	ActionGroupJoin     = "GROUP_JOIN"
	ActionGroupLeave    = "GROUP_LEAVE"
	ActionAttendance    = "ATTENDANCE"
	ActionFollowUp      = "FOLLOW_UP"
)

// Entry is one append-only activity record. Entries are never updated;
// old ones are only removed by the retention pruner. The church is stamped
// at write time so log queries stay church-scoped even if the user later
// moves.
type Entry struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	ChurchID  *primitive.ObjectID `bson:"church_id,omitempty" json:"church_id,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`

	Action      string `bson:"action" json:"action"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	IPAddress   string `bson:"ip_address,omitempty" json:"ip_address,omitempty"`

	// TargetID points at the acted-on record for actions that have one
	// (the group joined, the member whose status changed).
	TargetID *primitive.ObjectID `bson:"target_id,omitempty" json:"target_id,omitempty"`
	Details  map[string]any      `bson:"details,omitempty" json:"details,omitempty"`
}

// Store manages the activity_log collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_log")}
}

// EnsureIndexes creates the indexes the log queries depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_user"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_church"),
		},
		{
			Keys:    bson.D{{Key: "church_id", Value: 1}, {Key: "action", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_activity_church_action"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create appends a new entry to the log.
func (s *Store) Create(ctx context.Context, e Entry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Filter narrows log listings.
type Filter struct {
	ChurchID *primitive.ObjectID
	UserID   *primitive.ObjectID
	Action   string
	Since    *time.Time
	Until    *time.Time
}

func (f Filter) build() bson.M {
	filter := bson.M{}
	if f.ChurchID != nil {
		filter["church_id"] = *f.ChurchID
	}
	if f.UserID != nil {
		filter["user_id"] = *f.UserID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	ts := bson.M{}
	if f.Since != nil {
		ts["$gte"] = *f.Since
	}
	if f.Until != nil {
		ts["$lt"] = *f.Until
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}
	return filter
}

// List returns entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter, opts ...*options.FindOptions) ([]Entry, error) {
	opts = append(opts, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	cur, err := s.c.Find(ctx, f.build(), opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of entries matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.build())
}

// Summary returns per-action counts for one church over a trailing window.
func (s *Store) Summary(ctx context.Context, churchID primitive.ObjectID, window time.Duration) (map[string]int64, error) {
	since := time.Now().UTC().Add(-window)
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"church_id": churchID,
			"timestamp": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{"_id": "$action", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Action string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Action] = row.Count
	}
	return out, cur.Err()
}

// DeleteOlderThan removes entries with a timestamp before cutoff and
// returns how many were removed.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DistinctActors returns how many different users produced entries for one
// church since the given time.
func (s *Store) DistinctActors(ctx context.Context, churchID primitive.ObjectID, since time.Time) (int64, error) {
	ids, err := s.c.Distinct(ctx, "user_id", bson.M{
		"church_id": churchID,
		"timestamp": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}
