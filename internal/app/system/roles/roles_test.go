package roles

import "testing"

func TestIsValid(t *testing.T) {
	for _, name := range All {
		if !IsValid(name) {
			t.Errorf("IsValid(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"", "admin", "CHURCH_LEADER", "MEMBER"} {
		if IsValid(name) {
			t.Errorf("IsValid(%q) = true, want false", name)
		}
	}
}

func TestRegularRoleTypes_ExcludeAdminAndNewFriend(t *testing.T) {
	if IsRegularRoleType(Admin) {
		t.Error("ADMIN must not be a regular member role type")
	}
	if IsRegularRoleType(NewFriend) {
		t.Error("NEW_FRIEND must not be a regular member role type")
	}
	for _, name := range []string{VSL, CSL, CL, CM} {
		if !IsRegularRoleType(name) {
			t.Errorf("IsRegularRoleType(%q) = false, want true", name)
		}
	}
}

func TestDefaultPermissions_Ordering(t *testing.T) {
	table := DefaultPermissions()

	prev := table.Level(Admin)
	for _, name := range All[1:] {
		cur := table.Level(name)
		if cur >= prev {
			t.Errorf("expected strictly descending levels, %s=%d >= previous %d", name, cur, prev)
		}
		prev = cur
	}

	if table.Level("UNKNOWN") != 0 {
		t.Error("unknown role should have level 0")
	}
	if !table.AtLeast(VSL, CM) {
		t.Error("VSL should be at least CM")
	}
	if table.AtLeast(CM, VSL) {
		t.Error("CM should not be at least VSL")
	}
}

func TestVariantFor(t *testing.T) {
	tests := []struct {
		name      string
		superuser bool
		role      string
		want      DashboardVariant
	}{
		{"superuser ignores role", true, CM, VariantSuperAdmin},
		{"superuser with admin role", true, Admin, VariantSuperAdmin},
		{"church admin", false, Admin, VariantChurchAdmin},
		{"vsl is member view", false, VSL, VariantMember},
		{"new friend is member view", false, NewFriend, VariantMember},
		{"no role is member view", false, "", VariantMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VariantFor(tt.superuser, tt.role); got != tt.want {
				t.Errorf("VariantFor(%v, %q) = %v, want %v", tt.superuser, tt.role, got, tt.want)
			}
		})
	}
}
