package bootstrap

import (
	"testing"

	"go.uber.org/zap"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/roles"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureSuperAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{ShepherdMongoDatabase: db}

	err := ensureSuperAdmin(ctx, deps, "superadmin@jcsgo.com", "bootstrap-secret-1", testLogger())
	if err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "superadmin@jcsgo.com")
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if !u.Superuser {
		t.Error("expected created account to be a superuser")
	}
	if u.Role != roles.Admin {
		t.Errorf("expected role %q, got %q", roles.Admin, u.Role)
	}
	if !u.Active {
		t.Error("expected created account to be active")
	}
	if !authutil.CheckPassword(u.PasswordHash, "bootstrap-secret-1") {
		t.Error("expected password to verify against configured secret")
	}
}

func TestEnsureSuperAdmin_CreateRequiresPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{ShepherdMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "nopass@jcsgo.com", "", testLogger()); err == nil {
		t.Fatal("expected error creating superadmin without a password")
	}
}

func TestEnsureSuperAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	church := f.CreateChurch(ctx, "Kasiglahan", "kasiglahan")
	existing := f.CreateAdmin(ctx, "Grace", "Reyes", "grace@kasiglahan.jcsgo.com", church.ID)

	deps := DBDeps{ShepherdMongoDatabase: db}

	// Password is ignored for existing accounts.
	err := ensureSuperAdmin(ctx, deps, existing.Email, "", testLogger())
	if err != nil {
		t.Fatalf("ensureSuperAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !u.Superuser {
		t.Error("expected existing account to be promoted to superuser")
	}
	if !u.Active {
		t.Error("expected promoted account to be active")
	}
}

func TestEnsureSuperAdmin_AlreadySuperuser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{ShepherdMongoDatabase: db}

	if err := ensureSuperAdmin(ctx, deps, "superadmin@jcsgo.com", "bootstrap-secret-1", testLogger()); err != nil {
		t.Fatalf("first ensureSuperAdmin failed: %v", err)
	}
	// Second run must be a no-op, not a duplicate insert.
	if err := ensureSuperAdmin(ctx, deps, "superadmin@jcsgo.com", "", testLogger()); err != nil {
		t.Fatalf("second ensureSuperAdmin failed: %v", err)
	}

	n, err := userstore.New(db).Count(ctx, userstore.ListFilter{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one account, got %d", n)
	}
}

func TestSeedChurches_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{ShepherdMongoDatabase: db}

	if err := seedChurches(ctx, deps, testLogger()); err != nil {
		t.Fatalf("first seedChurches failed: %v", err)
	}

	churches := churchstore.New(db)
	first, err := churches.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(first) != len(seedChurchList) {
		t.Fatalf("expected %d seeded churches, got %d", len(seedChurchList), len(first))
	}

	for _, seed := range seedChurchList {
		ch, err := churches.GetByDomain(ctx, seed.Domain)
		if err != nil {
			t.Fatalf("seeded church %q not found: %v", seed.Domain, err)
		}
		if !ch.Active {
			t.Errorf("expected seeded church %q to be active", seed.Domain)
		}
	}

	// Re-running must not duplicate anything.
	if err := seedChurches(ctx, deps, testLogger()); err != nil {
		t.Fatalf("second seedChurches failed: %v", err)
	}
	second, err := churches.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("expected re-seed to leave %d churches, got %d", len(first), len(second))
	}
}
