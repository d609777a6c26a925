package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/features/logout"
	"github.com/jcsgo/shepherd/internal/app/system/auth"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func TestHandleLogout(t *testing.T) {
	if err := auth.InitSessionStore(testutil.SessionKey(), "shepherd_session", "", false, zap.NewNop()); err != nil {
		t.Fatalf("init session store: %v", err)
	}
	h := logout.NewHandler(nil, zap.NewNop())

	t.Run("signed in", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest("POST", "/logout", testutil.MemberUser(primitive.NewObjectID()))
		rec := httptest.NewRecorder()
		h.HandleLogout(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		expired := false
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge < 0 {
				expired = true
			}
		}
		if !expired {
			t.Error("expected the session cookie to be expired")
		}
	})

	t.Run("not signed in is still ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleLogout(rec, testutil.NewRequest("POST", "/logout"))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
