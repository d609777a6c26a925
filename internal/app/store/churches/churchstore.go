// internal/app/store/churches/churchstore.go
package churchstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcsgo/shepherd/internal/app/system/normalize"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

var (
	ErrDuplicateDomain = errors.New("a church with this domain already exists")
	ErrNotFound        = errors.New("church not found")
	errDomainRequired  = errors.New("church domain is required")
	errNameRequired    = errors.New("church name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("churches")}
}

// Create inserts a new church after normalizing the domain and name.
// New churches start active.
func (s *Store) Create(ctx context.Context, ch models.Church) (models.Church, error) {
	ch.Name = normalize.Name(ch.Name)
	if ch.Name == "" {
		return models.Church{}, errNameRequired
	}
	ch.Domain = normalize.Domain(ch.Domain)
	if ch.Domain == "" {
		return models.Church{}, errDomainRequired
	}

	now := time.Now().UTC()
	ch.ID = primitive.NewObjectID()
	ch.NameCI = text.Fold(ch.Name)
	ch.Active = true
	ch.CreatedAt = now
	ch.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Church{}, ErrDuplicateDomain
		}
		return models.Church{}, err
	}
	return ch, nil
}

// GetByID loads a church by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Church, error) {
	var ch models.Church
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// GetByDomain looks up a church by its normalized domain.
func (s *Store) GetByDomain(ctx context.Context, domain string) (*models.Church, error) {
	var ch models.Church
	err := s.c.FindOne(ctx, bson.M{"domain": normalize.Domain(domain)}).Decode(&ch)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// ListActive returns all active churches sorted by name. This is the list
// shown on the church selection page and the login church picker.
func (s *Store) ListActive(ctx context.Context) ([]models.Church, error) {
	cur, err := s.c.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var churches []models.Church
	if err := cur.All(ctx, &churches); err != nil {
		return nil, err
	}
	return churches, nil
}

// ListAll returns every church, active or not, sorted by name. Superuser use.
func (s *Store) ListAll(ctx context.Context) ([]models.Church, error) {
	cur, err := s.c.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var churches []models.Church
	if err := cur.All(ctx, &churches); err != nil {
		return nil, err
	}
	return churches, nil
}

// Update modifies a church's mutable fields and refreshes UpdatedAt.
// The domain is a natural key and is not updatable here.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, ch models.Church) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if ch.Name != "" {
		set["name"] = normalize.Name(ch.Name)
		set["name_ci"] = text.Fold(ch.Name)
	}
	if ch.Location != "" {
		set["location"] = ch.Location
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

// SetActive flips a church's active flag. Deactivation hides the church from
// selection and login listings without touching its data.
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

// Statistics are always computed live from the users collection; there is no
// stored member counter to drift out of sync.
type Statistics struct {
	ChurchID       primitive.ObjectID `json:"church_id"`
	TotalMembers   int64              `json:"total_members"`
	NewFriends     int64              `json:"new_friends"`
	RegularMembers int64              `json:"regular_members"`
	RecentJoins    int64              `json:"recent_joins"` // joined in the trailing 30 days
}

// MemberStatistics computes live membership counts for one church.
// Only active users are counted.
func (s *Store) MemberStatistics(ctx context.Context, churchID primitive.ObjectID) (Statistics, error) {
	users := s.db.Collection("users")
	base := bson.M{"church_id": churchID, "active": true}

	total, err := users.CountDocuments(ctx, base)
	if err != nil {
		return Statistics{}, err
	}
	newFriends, err := users.CountDocuments(ctx, bson.M{
		"church_id": churchID, "active": true, "is_new_friend": true,
	})
	if err != nil {
		return Statistics{}, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	recent, err := users.CountDocuments(ctx, bson.M{
		"church_id": churchID, "active": true,
		"date_joined": bson.M{"$gte": cutoff},
	})
	if err != nil {
		return Statistics{}, err
	}

	return Statistics{
		ChurchID:       churchID,
		TotalMembers:   total,
		NewFriends:     newFriends,
		RegularMembers: total - newFriends,
		RecentJoins:    recent,
	}, nil
}
