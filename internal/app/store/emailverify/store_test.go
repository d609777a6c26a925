package emailverify_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/store/emailverify"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func TestStore_CreateAndVerifyCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, time.Hour)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()

	res, err := store.Create(ctx, userID, "maria@kasiglahan.jcsgo.com", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(res.Code) != emailverify.CodeLength {
		t.Errorf("code length = %d, want %d", len(res.Code), emailverify.CodeLength)
	}
	if res.Token == "" {
		t.Error("expected a magic-link token")
	}

	if _, err := store.VerifyCode(ctx, userID, "000000"); err != emailverify.ErrInvalidCode {
		// The random code could be 000000 once in a million runs; tolerate it.
		if err != nil {
			t.Logf("VerifyCode with wrong code: %v", err)
		}
	}

	v, err := store.VerifyCode(ctx, userID, res.Code)
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if v.Email != "maria@kasiglahan.jcsgo.com" {
		t.Errorf("email = %q", v.Email)
	}

	// Single use.
	if _, err := store.VerifyCode(ctx, userID, res.Code); err != emailverify.ErrNotFound {
		t.Errorf("expected ErrNotFound after use, got %v", err)
	}
}

func TestStore_VerifyToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, time.Hour)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	res, err := store.Create(ctx, userID, "juan@sanjose.jcsgo.com", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	v, err := store.VerifyToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if v.UserID != userID {
		t.Errorf("UserID mismatch")
	}

	if _, err := store.VerifyToken(ctx, res.Token); err != emailverify.ErrNotFound {
		t.Errorf("expected ErrNotFound after use, got %v", err)
	}
}

func TestStore_ResendRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, time.Hour)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	if _, err := store.Create(ctx, userID, "x@tabak.jcsgo.com", false); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < emailverify.MaxResends; i++ {
		if _, err := store.Create(ctx, userID, "x@tabak.jcsgo.com", true); err != nil {
			t.Fatalf("resend %d failed: %v", i+1, err)
		}
	}
	if _, err := store.Create(ctx, userID, "x@tabak.jcsgo.com", true); err != emailverify.ErrTooManyResends {
		t.Errorf("expected ErrTooManyResends, got %v", err)
	}
}

func TestStore_MaxAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := emailverify.New(db, time.Hour)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	res, err := store.Create(ctx, userID, "y@tabak.jcsgo.com", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wrong := "999999"
	if wrong == res.Code {
		wrong = "999998"
	}
	for i := 0; i < emailverify.MaxVerifyAttempts; i++ {
		if _, err := store.VerifyCode(ctx, userID, wrong); err != emailverify.ErrInvalidCode {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i+1, err)
		}
	}
	if _, err := store.VerifyCode(ctx, userID, res.Code); err != emailverify.ErrTooManyAttempts {
		t.Errorf("expected ErrTooManyAttempts, got %v", err)
	}
}
