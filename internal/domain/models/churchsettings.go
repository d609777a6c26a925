// internal/domain/models/churchsettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChurchSettings holds per-church policy flags. Exactly one document per
// church (unique index on church_id).
type ChurchSettings struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChurchID primitive.ObjectID `bson:"church_id" json:"church_id"`

	// Registration policy
	AllowPublicRegistration  bool `bson:"allow_public_registration" json:"allow_public_registration"`
	RequireEmailVerification bool `bson:"require_email_verification" json:"require_email_verification"`
	RequireAdminApproval     bool `bson:"require_admin_approval" json:"require_admin_approval"`

	// Dashboard toggles
	ShowNewFriendsCount bool `bson:"show_new_friends_count" json:"show_new_friends_count"`
	ShowRegularsCount   bool `bson:"show_regulars_count" json:"show_regulars_count"`
	ShowGrowthCharts    bool `bson:"show_growth_charts" json:"show_growth_charts"`

	// Privacy
	ShowMemberContactInfo bool `bson:"show_member_contact_info" json:"show_member_contact_info"`
	AllowMemberDirectory  bool `bson:"allow_member_directory" json:"allow_member_directory"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
