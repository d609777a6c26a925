package rolestore_test

import (
	"testing"

	rolestore "github.com/jcsgo/shepherd/internal/app/store/roles"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func TestStore_EnsureRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureRoles(ctx); err != nil {
		t.Fatalf("EnsureRoles failed: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != len(roles.All) {
		t.Fatalf("expected %d roles, got %d", len(roles.All), len(list))
	}

	// Running again must not duplicate.
	if err := store.EnsureRoles(ctx); err != nil {
		t.Fatalf("second EnsureRoles failed: %v", err)
	}
	list, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != len(roles.All) {
		t.Errorf("EnsureRoles is not idempotent: got %d roles", len(list))
	}

	admin, err := store.GetByName(ctx, roles.Admin)
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if admin.Description == "" {
		t.Error("expected seeded description for ADMIN")
	}
}
