// internal/app/store/announcements/announcementstore.go
package announcementstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcsgo/shepherd/internal/app/system/htmlsanitize"
	"github.com/jcsgo/shepherd/internal/app/system/normalize"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

var (
	ErrNotFound      = errors.New("announcement not found")
	errTitleRequired = errors.New("announcement title is required")
	errBadPriority   = errors.New("unknown announcement priority")
)

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}

// Create inserts an announcement. Content is sanitized; it is rendered as
// HTML on the client side.
func (s *Store) Create(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	a.Title = normalize.Name(a.Title)
	if a.Title == "" {
		return models.Announcement{}, errTitleRequired
	}
	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}
	if !validPriority(a.Priority) {
		return models.Announcement{}, errBadPriority
	}
	a.Content = htmlsanitize.Sanitize(a.Content)

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	if a.StartDate.IsZero() {
		a.StartDate = now
	}
	a.Active = true
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// GetByID loads an announcement.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListCurrent returns the announcements visible right now for a church,
// newest first. Priority is carried on each entry for the client to order
// or badge as it sees fit.
func (s *Store) ListCurrent(ctx context.Context, churchID primitive.ObjectID) ([]models.Announcement, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"church_id":  churchID,
		"active":     true,
		"start_date": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"end_date": bson.M{"$exists": false}},
			bson.M{"end_date": nil},
			bson.M{"end_date": bson.M{"$gte": now}},
		},
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every announcement for a church, newest first. Admin use.
func (s *Store) ListAll(ctx context.Context, churchID primitive.ObjectID, opts ...*options.FindOptions) ([]models.Announcement, error) {
	opts = append(opts, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	cur, err := s.c.Find(ctx, bson.M{"church_id": churchID}, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies an announcement's content fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, a models.Announcement) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if a.Title != "" {
		set["title"] = normalize.Name(a.Title)
	}
	if a.Content != "" {
		set["content"] = htmlsanitize.Sanitize(a.Content)
	}
	if a.Priority != "" {
		if !validPriority(a.Priority) {
			return errBadPriority
		}
		set["priority"] = a.Priority
	}
	if !a.StartDate.IsZero() {
		set["start_date"] = a.StartDate
	}
	if a.EndDate != nil {
		set["end_date"] = a.EndDate
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

// SetActive shows or hides an announcement.
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

// Delete removes an announcement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
