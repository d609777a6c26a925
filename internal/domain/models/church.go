// internal/domain/models/church.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Church is the tenant root. Every user, group, and activity entry is scoped
// to exactly one church. Domain is the unique natural key ("kasiglahan",
// "sanjose", ...) used for selection pages, login URLs, and import/export.
//
// A deactivated church (Active=false) is excluded from selection and login
// listings, but its data stays in place and remains queryable by superusers.
type Church struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Location string             `bson:"location" json:"location"`
	Domain   string             `bson:"domain" json:"domain"`
	Active   bool               `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
