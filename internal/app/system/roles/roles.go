// Package roles defines the closed role set, the role→permission-level table,
// and the dashboard variant resolved from the acting user.
//
// The role set is fixed for this design: churches do not define their own
// roles. The permission table is injectable so tests and future deployments
// can adjust ordering without touching logic.
package roles

// Role names.
const (
	Admin     = "ADMIN"
	VSL       = "VSL" // Vision Servant Leader
	CSL       = "CSL" // Cell Servant Leader
	CL        = "CL"  // Cell Leader
	CM        = "CM"  // Cell Member
	NewFriend = "NEW_FRIEND"
)

// All is the closed role set, in descending permission order.
var All = []string{Admin, VSL, CSL, CL, CM, NewFriend}

// Descriptions for seeding the roles collection.
var Descriptions = map[string]string{
	Admin:     "Admin with full access",
	VSL:       "Vision Servant Leader",
	CSL:       "Cell Servant Leader",
	CL:        "Cell Leader",
	CM:        "Cell Member",
	NewFriend: "New Friend (1st-5th timer)",
}

// RegularRoleTypes is the explicit allow-list of role types a RegularMember
// profile may hold. ADMIN and NEW_FRIEND are excluded by name, not by
// position in a choices list.
var RegularRoleTypes = []string{VSL, CSL, CL, CM}

// IsValid reports whether name is one of the closed role set.
func IsValid(name string) bool {
	for _, r := range All {
		if r == name {
			return true
		}
	}
	return false
}

// IsRegularRoleType reports whether name may be used as a RegularMember
// role type.
func IsRegularRoleType(name string) bool {
	for _, r := range RegularRoleTypes {
		if r == name {
			return true
		}
	}
	return false
}

// PermissionTable maps role names to numeric permission levels used for
// coarse authorization ordering. Higher means more capable.
type PermissionTable map[string]int

// DefaultPermissions returns the standard table.
func DefaultPermissions() PermissionTable {
	return PermissionTable{
		Admin:     100,
		VSL:       80,
		CSL:       60,
		CL:        40,
		CM:        20,
		NewFriend: 10,
	}
}

// Level returns the permission level for a role name, 0 when unknown.
func (t PermissionTable) Level(name string) int { return t[name] }

// AtLeast reports whether role's level meets or exceeds min's level.
func (t PermissionTable) AtLeast(role, min string) bool {
	return t[role] >= t[min]
}

// DashboardVariant is the closed set of dashboard views. It is resolved once
// per request from the acting user, never re-derived from role strings
// downstream.
type DashboardVariant int

const (
	// VariantMember is the member-level view: own church counts only.
	VariantMember DashboardVariant = iota
	// VariantChurchAdmin is the single-church admin view with role-breakdown
	// percentages.
	VariantChurchAdmin
	// VariantSuperAdmin is the cross-church aggregate view.
	VariantSuperAdmin
)

func (v DashboardVariant) String() string {
	switch v {
	case VariantSuperAdmin:
		return "superadmin"
	case VariantChurchAdmin:
		return "church_admin"
	default:
		return "member"
	}
}

// VariantFor picks the dashboard variant for an acting user. Superusers see
// the cross-church view regardless of role; ADMINs see the church admin view;
// everyone else sees the member view.
func VariantFor(superuser bool, role string) DashboardVariant {
	if superuser {
		return VariantSuperAdmin
	}
	if role == Admin {
		return VariantChurchAdmin
	}
	return VariantMember
}
