// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Announcement priorities, ordered for sorting.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Announcement is a church-scoped notice shown between StartDate and EndDate.
type Announcement struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID primitive.ObjectID `bson:"church_id" json:"church_id"`

	Title    string `bson:"title" json:"title"`
	Content  string `bson:"content" json:"content"`
	Priority string `bson:"priority" json:"priority"`
	Active   bool   `bson:"active" json:"active"`

	StartDate time.Time  `bson:"start_date" json:"start_date"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"` // nil means open-ended

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsCurrent reports whether the announcement is active at t.
func (a *Announcement) IsCurrent(t time.Time) bool {
	if !a.Active || a.StartDate.After(t) {
		return false
	}
	return a.EndDate == nil || !a.EndDate.Before(t)
}
