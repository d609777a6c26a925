// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Store provides access to the roles collection. The role set is closed and
// seeded at startup; nothing creates roles at runtime.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

// EnsureRoles seeds every known role that is not already present. It is
// idempotent and safe to run on every startup.
func (s *Store) EnsureRoles(ctx context.Context) error {
	now := time.Now().UTC()
	for _, name := range roles.All {
		role := models.Role{
			ID:          primitive.NewObjectID(),
			Name:        name,
			Description: roles.Descriptions[name],
			Active:      true,
			CreatedAt:   now,
		}
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":         role.ID,
				"name":        role.Name,
				"description": role.Description,
				"active":      role.Active,
				"created_at":  role.CreatedAt,
			},
		}
		_, err := s.c.UpdateOne(ctx, bson.M{"name": name}, update,
			options.Update().SetUpsert(true))
		if err != nil && !wafflemongo.IsDup(err) {
			return err
		}
	}
	return nil
}

// GetByName looks up a role by its name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&role); err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns all roles sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Role, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
