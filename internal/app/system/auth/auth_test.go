package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

func initTestStore(t *testing.T) {
	t.Helper()
	key := securecookie.GenerateRandomKey(32)
	if err := InitSessionStore(string(key), "shepherd-test-session", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore failed: %v", err)
	}
}

func TestInitSessionStore_EmptyKey(t *testing.T) {
	if err := InitSessionStore("", "", "", false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestSignInLoadSignOut(t *testing.T) {
	initTestStore(t)

	// Sign in and capture the cookie.
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/login", nil)
	err := SignIn(w, r, SessionUser{
		ID:           "64f0c0ffee",
		Name:         "Juan Dela Cruz",
		Email:        "juan@kasiglahan.jcsgo.com",
		Role:         "CM",
		ChurchDomain: "kasiglahan",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie to be set")
	}

	// A subsequent request with the cookie should carry the user.
	r2 := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range cookies {
		r2.AddCookie(c)
	}
	var got *SessionUser
	h := LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CurrentUser(r)
	}))
	h.ServeHTTP(httptest.NewRecorder(), r2)

	if got == nil {
		t.Fatal("expected user in context after LoadSessionUser")
	}
	if got.Email != "juan@kasiglahan.jcsgo.com" || got.ChurchDomain != "kasiglahan" {
		t.Errorf("unexpected session user: %+v", got)
	}
}

func TestRequireSignedIn_Unauthorized(t *testing.T) {
	initTestStore(t)

	h := RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for anonymous request")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/members", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole(t *testing.T) {
	initTestStore(t)

	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	tests := []struct {
		name string
		user *SessionUser
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"wrong role", &SessionUser{Role: "CM"}, http.StatusForbidden},
		{"allowed role", &SessionUser{Role: "ADMIN"}, http.StatusOK},
		{"case-insensitive", &SessionUser{Role: "admin"}, http.StatusOK},
		{"superuser bypasses role", &SessionUser{Role: "CM", Superuser: true}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole("ADMIN")(http.HandlerFunc(ok))
			r := httptest.NewRequest("GET", "/members", nil)
			if tt.user != nil {
				r = WithTestUser(r, tt.user)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
