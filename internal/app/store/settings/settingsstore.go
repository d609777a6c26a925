// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Store provides access to the church_settings collection.
// Each church has exactly one settings document (unique index on church_id).
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("church_settings")}
}

// Defaults returns the settings applied to a church that has never saved
// any. Public registration is on, verification and approval are off, and
// all dashboard sections are visible.
func Defaults(churchID primitive.ObjectID) models.ChurchSettings {
	return models.ChurchSettings{
		ChurchID:                churchID,
		AllowPublicRegistration: true,
		ShowNewFriendsCount:     true,
		ShowRegularsCount:       true,
		ShowGrowthCharts:        true,
		AllowMemberDirectory:    true,
	}
}

// Get returns the settings for a church, or the defaults when none have
// been saved yet.
func (s *Store) Get(ctx context.Context, churchID primitive.ObjectID) (models.ChurchSettings, error) {
	var settings models.ChurchSettings
	err := s.c.FindOne(ctx, bson.M{"church_id": churchID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return Defaults(churchID), nil
	}
	if err != nil {
		return models.ChurchSettings{}, err
	}
	return settings, nil
}

// Save upserts the settings document for a church.
func (s *Store) Save(ctx context.Context, churchID primitive.ObjectID, settings models.ChurchSettings) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"church_id":                  churchID,
			"allow_public_registration":  settings.AllowPublicRegistration,
			"require_email_verification": settings.RequireEmailVerification,
			"require_admin_approval":     settings.RequireAdminApproval,
			"show_new_friends_count":     settings.ShowNewFriendsCount,
			"show_regulars_count":        settings.ShowRegularsCount,
			"show_growth_charts":         settings.ShowGrowthCharts,
			"show_member_contact_info":   settings.ShowMemberContactInfo,
			"allow_member_directory":     settings.AllowMemberDirectory,
			"updated_at":                 now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"church_id": churchID}, update,
		options.Update().SetUpsert(true))
	return err
}

// Exists reports whether a settings document has been saved for the church.
func (s *Store) Exists(ctx context.Context, churchID primitive.ObjectID) (bool, error) {
	count, err := s.c.CountDocuments(ctx, bson.M{"church_id": churchID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the settings for a church. Used when a church is removed.
func (s *Store) Delete(ctx context.Context, churchID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"church_id": churchID})
	return err
}
