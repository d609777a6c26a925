// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member of a church (or a cross-church superuser). Email is the
// unique login identifier; there is no separate username.
//
// Lifecycle: every user starts as a "new friend" with TimerStatus counting
// visits 1..5. Reaching 5 (or a direct transition) flips NewFriend to false,
// stamps TransitionDate, and creates a RegularMember profile. There is no
// path back.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email      string             `bson:"email" json:"email"`
	FirstName  string             `bson:"first_name" json:"first_name"`
	LastName   string             `bson:"last_name" json:"last_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	ChurchID *primitive.ObjectID `bson:"church_id,omitempty" json:"church_id,omitempty"`
	Role     string              `bson:"role,omitempty" json:"role,omitempty"` // role name, "" when unassigned

	PhoneNumber string     `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	Address     string     `bson:"address,omitempty" json:"address,omitempty"`
	BirthDate   *time.Time `bson:"birth_date,omitempty" json:"birth_date,omitempty"`

	// Lifecycle state
	NewFriend      bool       `bson:"is_new_friend" json:"is_new_friend"`
	TimerStatus    int        `bson:"timer_status" json:"timer_status"` // always within [1,5]
	LastAttendance *time.Time `bson:"last_attendance,omitempty" json:"last_attendance,omitempty"`
	TransitionDate *time.Time `bson:"transition_date,omitempty" json:"transition_date,omitempty"`

	EmailVerified bool `bson:"email_verified" json:"email_verified"`
	Superuser     bool `bson:"is_superuser" json:"is_superuser"`
	Staff         bool `bson:"is_staff" json:"is_staff"`
	Active        bool `bson:"active" json:"active"`

	DateJoined time.Time `bson:"date_joined" json:"date_joined"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins the name fields for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
