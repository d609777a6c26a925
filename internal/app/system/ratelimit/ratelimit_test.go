package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcsgo/shepherd/internal/app/system/ratelimit"
)

func TestLimiter_AllowWithinLimit(t *testing.T) {
	l := ratelimit.New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("fourth attempt should be blocked")
	}
	if !l.Allow("other") {
		t.Error("different key should not be affected")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second attempt should be blocked")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("attempt after reset should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:4312"
	if got := ratelimit.ClientIP(r); got != "192.0.2.10" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	r.Header.Set("X-Real-IP", "198.51.100.7")
	if got := ratelimit.ClientIP(r); got != "198.51.100.7" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	if got := ratelimit.ClientIP(r); got != "203.0.113.9" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestLoginLimiter_PerEmailLimit(t *testing.T) {
	ll := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "192.0.2.10:4312"

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "maria@kasiglahan.jcsgo.com"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if ok, reason := ll.Check(r, "maria@kasiglahan.jcsgo.com"); ok || reason == "" {
		t.Error("third attempt for same email should be blocked with a reason")
	}
	// Case and whitespace variants count against the same account.
	if ok, _ := ll.Check(r, "  MARIA@kasiglahan.jcsgo.com "); ok {
		t.Error("email key should be case and whitespace insensitive")
	}

	ll.ResetEmail("maria@kasiglahan.jcsgo.com")
	if ok, _ := ll.Check(r, "maria@kasiglahan.jcsgo.com"); !ok {
		t.Error("attempt after reset should be allowed")
	}
}

func TestLoginLimiter_PerIPLimit(t *testing.T) {
	ll := ratelimit.NewLoginLimiterWithConfig(2, time.Minute, 100, time.Minute)
	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "192.0.2.10:4312"

	ll.Check(r, "a@kasiglahan.jcsgo.com")
	ll.Check(r, "b@kasiglahan.jcsgo.com")
	if ok, _ := ll.Check(r, "c@kasiglahan.jcsgo.com"); ok {
		t.Error("third attempt from same IP should be blocked")
	}
}

func TestLoginLimiter_NilAllowsEverything(t *testing.T) {
	var ll *ratelimit.LoginLimiter
	r := httptest.NewRequest("POST", "/login", nil)
	if ok, _ := ll.Check(r, "anyone@kasiglahan.jcsgo.com"); !ok {
		t.Error("nil limiter must allow")
	}
	ll.ResetEmail("anyone@kasiglahan.jcsgo.com")
}
