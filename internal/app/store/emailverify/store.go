// internal/app/store/emailverify/store.go
package emailverify

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the length of the emailed verification code.
	CodeLength = 6
	// DefaultExpiry is how long a verification is valid.
	DefaultExpiry = 24 * time.Hour
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the maximum number of code checks per verification.
	MaxVerifyAttempts = 5
	// MaxResends within ResendWindow.
	MaxResends   = 3
	ResendWindow = 10 * time.Minute
)

var (
	ErrNotFound        = errors.New("verification not found or expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrTooManyResends  = errors.New("too many resend requests")
)

// Verification is a pending email verification. The code is emailed to the
// user and stored hashed; the token backs the magic link in the same email.
type Verification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Email       string             `bson:"email"`
	CodeHash    string             `bson:"code_hash"`
	Token       string             `bson:"token"`
	ExpiresAt   time.Time          `bson:"expires_at"`
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	ResendCount int                `bson:"resend_count"`
	WindowStart time.Time          `bson:"window_start"`
}

// Store manages email verification records.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store with the given expiry; zero or negative means
// DefaultExpiry.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("email_verifications"), expiry: expiry}
}

// EnsureIndexes creates the lookup indexes and the TTL index that reaps
// expired verifications.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_token"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_emailverify_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateResult carries the plaintext code and magic-link token to be mailed.
type CreateResult struct {
	Code  string
	Token string
}

// Create issues a fresh verification for a user, replacing any previous one.
// Resends are rate limited per ResendWindow.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string, isResend bool) (*CreateResult, error) {
	now := time.Now().UTC()

	var existing Verification
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&existing)
	existingFound := err == nil

	resendCount := 0
	windowStart := now
	if existingFound && now.Before(existing.WindowStart.Add(ResendWindow)) {
		windowStart = existing.WindowStart
		resendCount = existing.ResendCount
		if isResend {
			if resendCount >= MaxResends {
				return nil, ErrTooManyResends
			}
			resendCount++
		}
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash code: %w", err)
	}

	_, _ = s.c.DeleteMany(ctx, bson.M{"user_id": userID})

	v := Verification{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Email:       email,
		CodeHash:    string(hash),
		Token:       uuid.NewString(),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}
	return &CreateResult{Code: code, Token: v.Token}, nil
}

// VerifyCode checks a code for a user. The record is single use and is
// deleted on success.
func (s *Store) VerifyCode(ctx context.Context, userID primitive.ObjectID, code string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&v)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if v.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}
	_, _ = s.c.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$inc": bson.M{"attempts": 1}})

	if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}
	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	return &v, nil
}

// VerifyToken checks a magic-link token. The record is single use and is
// deleted on success.
func (s *Store) VerifyToken(ctx context.Context, token string) (*Verification, error) {
	var v Verification
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&v)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": v.ID})
	return &v, nil
}

// Delete removes any pending verification for a user.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}
