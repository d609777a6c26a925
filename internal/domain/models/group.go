// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group categories.
const (
	GroupTypeCare     = "CARE"
	GroupTypeMinistry = "MINISTRY"
)

// Group is a care group or ministry group inside one church.
//
// NOTE:
//   - Membership is not embedded here. A regular member belongs to a group
//     via RegularMember.GroupID; counts are always computed live.
//   - MaxMembers is a capacity checked at add-time, not a stored invariant:
//     concurrent adds can transiently exceed it (see groupstore.AddMember).
type Group struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	Type     string             `bson:"group_type" json:"group_type"` // CARE | MINISTRY
	ChurchID primitive.ObjectID `bson:"church_id" json:"church_id"`

	// LeaderID must reference a non-new-friend user of the same church.
	LeaderID primitive.ObjectID `bson:"leader_id" json:"leader_id"`

	Description     string `bson:"description,omitempty" json:"description,omitempty"`
	MeetingSchedule string `bson:"meeting_schedule,omitempty" json:"meeting_schedule,omitempty"`
	MeetingLocation string `bson:"meeting_location,omitempty" json:"meeting_location,omitempty"`
	MaxMembers      int    `bson:"max_members" json:"max_members"`

	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
