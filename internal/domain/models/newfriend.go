// internal/domain/models/newfriend.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Follow-up statuses for new friends. PENDING moves forward through CONTACTED
// and FOLLOWED_UP to ENGAGED; NOT_INTERESTED is terminal from any state.
const (
	FollowUpPending       = "PENDING"
	FollowUpContacted     = "CONTACTED"
	FollowUpFollowedUp    = "FOLLOWED_UP"
	FollowUpEngaged       = "ENGAGED"
	FollowUpNotInterested = "NOT_INTERESTED"
)

// NewFriend is the tracking profile for a first-through-fifth-time visitor.
// Exactly one per user (unique index on user_id). The document is kept after
// the user transitions to regular membership but is semantically stale from
// then on; follow-up updates are rejected for transitioned users.
type NewFriend struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	ChurchID primitive.ObjectID `bson:"church_id" json:"church_id"`

	RegistrationDate time.Time `bson:"registration_date" json:"registration_date"`
	Source           string    `bson:"source,omitempty" json:"source,omitempty"` // how they found the church
	Notes            string    `bson:"notes,omitempty" json:"notes,omitempty"`

	// InvitedBy must reference a non-new-friend user of the same church.
	InvitedBy *primitive.ObjectID `bson:"invited_by,omitempty" json:"invited_by,omitempty"`

	FollowUpStatus string     `bson:"follow_up_status" json:"follow_up_status"`
	FollowUpNotes  string     `bson:"follow_up_notes,omitempty" json:"follow_up_notes,omitempty"`
	LastFollowUp   *time.Time `bson:"last_follow_up,omitempty" json:"last_follow_up,omitempty"`
}
