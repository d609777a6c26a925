package authz

import (
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

func TestUserCtx(t *testing.T) {
	uid := primitive.NewObjectID()

	t.Run("no user", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		role, name, id, ok := UserCtx(r)
		if ok || role != "" || name != "" || !id.IsZero() {
			t.Errorf("UserCtx on anonymous request = (%q, %q, %v, %v)", role, name, id, ok)
		}
	})

	t.Run("malformed ID fails closed", func(t *testing.T) {
		r := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "not-hex", Role: "CM"})
		_, _, _, ok := UserCtx(r)
		if ok {
			t.Error("expected ok=false for malformed user ID")
		}
	})

	t.Run("valid user", func(t *testing.T) {
		r := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
			ID: uid.Hex(), Name: "Maria Santos", Role: "csl",
		})
		role, name, id, ok := UserCtx(r)
		if !ok {
			t.Fatal("expected ok=true")
		}
		if role != "CSL" {
			t.Errorf("role = %q, want uppercased CSL", role)
		}
		if name != "Maria Santos" || id != uid {
			t.Errorf("got name=%q id=%v", name, id)
		}
	})
}

func TestCanAccessChurch(t *testing.T) {
	own := primitive.NewObjectID()
	other := primitive.NewObjectID()
	uid := primitive.NewObjectID().Hex()

	tests := []struct {
		name   string
		user   *auth.SessionUser
		church primitive.ObjectID
		want   bool
	}{
		{"anonymous", nil, own, false},
		{"superuser any church", &auth.SessionUser{ID: uid, Role: "CM", Superuser: true}, other, true},
		{"admin any church", &auth.SessionUser{ID: uid, Role: "ADMIN", ChurchID: own.Hex()}, other, true},
		{"member own church", &auth.SessionUser{ID: uid, Role: "CM", ChurchID: own.Hex()}, own, true},
		{"member other church", &auth.SessionUser{ID: uid, Role: "CM", ChurchID: own.Hex()}, other, false},
		{"member without church", &auth.SessionUser{ID: uid, Role: "CM"}, own, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.user != nil {
				r = auth.WithTestUser(r, tt.user)
			}
			if got := CanAccessChurch(r, tt.church); got != tt.want {
				t.Errorf("CanAccessChurch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRolePredicates(t *testing.T) {
	uid := primitive.NewObjectID().Hex()

	r := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: uid, Role: "CSL"})
	if !IsLeader(r) {
		t.Error("CSL should be a leader")
	}
	if IsAdmin(r) {
		t.Error("CSL should not be an admin")
	}

	r = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: uid, Role: "CM", Superuser: true})
	if !IsAdmin(r) {
		t.Error("superuser should count as admin")
	}

	r = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: uid, Role: "NEW_FRIEND"})
	if !IsNewFriend(r) {
		t.Error("expected IsNewFriend=true")
	}
	if IsLeader(r) {
		t.Error("new friend is not a leader")
	}
}

func TestHasPermissionLevel(t *testing.T) {
	uid := primitive.NewObjectID().Hex()

	r := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: uid, Role: "CL"})
	if !HasPermissionLevel(r, 40) {
		t.Error("CL (40) should meet level 40")
	}
	if HasPermissionLevel(r, 80) {
		t.Error("CL (40) should not meet level 80")
	}

	r = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: uid, Role: "vsl"})
	if !HasPermissionLevel(r, 60) {
		t.Error("role case should not affect the level lookup")
	}

	r = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: uid, Role: "NEW_FRIEND", Superuser: true})
	if !HasPermissionLevel(r, 100) {
		t.Error("superuser should meet any level")
	}
}
