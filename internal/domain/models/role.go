// internal/domain/models/role.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is one of the closed set of capability levels. Name is the unique
// natural key; the set itself is fixed (see internal/app/system/roles) and
// seeded at startup, never extended at runtime.
type Role struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"` // ADMIN | VSL | CSL | CL | CM | NEW_FRIEND
	Description string             `bson:"description" json:"description"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
