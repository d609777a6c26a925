// internal/app/store/users/userstore.go
package userstore

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
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when the email already belongs to a user.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyRegular is returned when transitioning a user who already
	// completed the new-friend stage. The transition is irreversible, so a
	// second transition is a caller bug, not a retry.
	ErrAlreadyRegular = errors.New("user is already a regular member")

	errBadRole       = errors.New("unknown role name")
	errBadTimer      = errors.New("timer status must be between 1 and 5")
	errChurchNeeded  = errors.New("non-superuser accounts must belong to a church")
	errEmailRequired = errors.New("email is required")
	errNameRequired  = errors.New("first or last name is required")
)

// Create inserts a new user after normalizing and validating fields.
// PasswordHash must already be hashed by the caller; this store never sees
// plaintext passwords. New-friend accounts start with TimerStatus clamped
// into [1,5]; regular accounts get TimerStatus 5.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, errEmailRequired
	}
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	if u.FirstName == "" && u.LastName == "" {
		return models.User{}, errNameRequired
	}
	u.FullNameCI = text.Fold(u.FullName())

	if u.Role != "" && !roles.IsValid(u.Role) {
		return models.User{}, errBadRole
	}
	if !u.Superuser && u.ChurchID == nil {
		return models.User{}, errChurchNeeded
	}

	if u.NewFriend {
		if u.Role == "" {
			u.Role = roles.NewFriend
		}
		if u.TimerStatus < 1 {
			u.TimerStatus = 1
		}
		if u.TimerStatus > 5 {
			u.TimerStatus = 5
		}
	} else {
		u.TimerStatus = 5
	}

	now := time.Now().UTC()
	u.Active = true
	u.DateJoined = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes a user by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListFilter narrows church-scoped user listings.
type ListFilter struct {
	ChurchID    primitive.ObjectID
	OnlyNew     bool // only users still on the new-friend timer
	OnlyRegular bool // only users past the timer
	Role        string
	Search      string // folded substring match on full name or email prefix
}

func (f ListFilter) build() bson.M {
	filter := bson.M{"church_id": f.ChurchID, "active": true}
	if f.OnlyNew {
		filter["is_new_friend"] = true
	}
	if f.OnlyRegular {
		filter["is_new_friend"] = false
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Search != "" {
		folded := text.Fold(f.Search)
		filter["$or"] = bson.A{
			bson.M{"full_name_ci": bson.M{"$regex": folded}},
			bson.M{"email": bson.M{"$regex": "^" + normalize.Email(f.Search)}},
		}
	}
	return filter
}

// List returns users of one church matching the filter, sorted by name.
func (s *Store) List(ctx context.Context, f ListFilter, opts ...*options.FindOptions) ([]models.User, error) {
	opts = append(opts, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	cur, err := s.c.Find(ctx, f.build(), opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of users matching the filter.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.build())
}

// CountByRole returns per-role counts of active users in one church.
func (s *Store) CountByRole(ctx context.Context, churchID primitive.ObjectID) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"church_id": churchID, "active": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Role  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Role] = row.Count
	}
	return out, cur.Err()
}

// SetTimerStatus writes a new visit count for a user still on the timer.
// The value must stay within [1,5]; promoting out of the timer goes through
// MarkRegular, never through this method.
func (s *Store) SetTimerStatus(ctx context.Context, id primitive.ObjectID, status int) error {
	if status < 1 || status > 5 {
		return errBadTimer
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_new_friend": true},
		bson.M{"$set": bson.M{"timer_status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRegular flips a new friend to regular membership: NewFriend false,
// TimerStatus pinned at 5, role set, TransitionDate stamped. The filter on
// is_new_friend makes the operation idempotent at the document level; a
// user who already transitioned yields ErrAlreadyRegular.
func (s *Store) MarkRegular(ctx context.Context, id primitive.ObjectID, role string, when time.Time) error {
	if !roles.IsRegularRoleType(role) {
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "is_new_friend": true},
		bson.M{"$set": bson.M{
			"is_new_friend":   false,
			"timer_status":    5,
			"role":            role,
			"transition_date": when,
			"updated_at":      time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing user from one already past the timer.
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrAlreadyRegular
	}
	return nil
}

// SetLastAttendance stamps the most recent attendance time.
func (s *Store) SetLastAttendance(ctx context.Context, id primitive.ObjectID, when time.Time) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"last_attendance": when,
		"updated_at":      time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole changes a user's role to another valid role name.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if !roles.IsValid(role) {
		return errBadRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
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

// ProfileUpdate holds the self-service editable fields.
type ProfileUpdate struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Address     string
	BirthDate   *time.Time
}

// UpdateProfile updates a user's own profile fields and the folded name.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	first := normalize.Name(upd.FirstName)
	last := normalize.Name(upd.LastName)
	if first == "" && last == "" {
		return errNameRequired
	}
	full := first
	if full == "" {
		full = last
	} else if last != "" {
		full = first + " " + last
	}
	set := bson.M{
		"first_name":   first,
		"last_name":    last,
		"full_name_ci": text.Fold(full),
		"phone_number": upd.PhoneNumber,
		"address":      upd.Address,
		"updated_at":   time.Now().UTC(),
	}
	if upd.BirthDate != nil {
		set["birth_date"] = upd.BirthDate
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

// SetPasswordHash replaces the stored password hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEmailVerified marks the user's email address as verified.
func (s *Store) SetEmailVerified(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"email_verified": true,
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSuperuser grants or revokes cross-church superuser status. A granted
// account is also reactivated so a stale disable never locks out the only
// superadmin.
func (s *Store) SetSuperuser(ctx context.Context, id primitive.ObjectID, super bool) error {
	set := bson.M{
		"is_superuser": super,
		"updated_at":   time.Now().UTC(),
	}
	if super {
		set["active"] = true
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

// SetActive enables or disables an account.
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
