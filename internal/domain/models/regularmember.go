// internal/domain/models/regularmember.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Availability of a regular member for ministry work.
const (
	AvailabilityAvailable   = "AVAILABLE"
	AvailabilityLimited     = "LIMITED"
	AvailabilityUnavailable = "UNAVAILABLE"
)

// RegularMember is the profile created when a user completes the new-friend
// timer (or is registered directly as a member). Exactly one per user.
//
// GroupID is the only record of group membership; group member counts are
// computed by counting these documents, never from a stored counter.
type RegularMember struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	ChurchID primitive.ObjectID `bson:"church_id" json:"church_id"`

	RoleType string              `bson:"role_type" json:"role_type"` // VSL | CSL | CL | CM
	GroupID  *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`

	MinistryInvolvement string `bson:"ministry_involvement,omitempty" json:"ministry_involvement,omitempty"`
	Skills              string `bson:"skills,omitempty" json:"skills,omitempty"`

	BaptismDate    *time.Time `bson:"baptism_date,omitempty" json:"baptism_date,omitempty"`
	MembershipDate *time.Time `bson:"membership_date,omitempty" json:"membership_date,omitempty"`
	Availability   string     `bson:"availability" json:"availability"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
