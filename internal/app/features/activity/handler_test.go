package activity_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/features/activity"
	activitystore "github.com/jcsgo/shepherd/internal/app/store/activity"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func seedEntries(t *testing.T, store *activitystore.Store, churchID primitive.ObjectID) (actorA, actorB primitive.ObjectID) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorA = primitive.NewObjectID()
	actorB = primitive.NewObjectID()
	now := time.Now().UTC()

	entries := []activitystore.Entry{
		{UserID: actorA, ChurchID: &churchID, Action: activitystore.ActionLogin, Timestamp: now.Add(-1 * time.Hour)},
		{UserID: actorA, ChurchID: &churchID, Action: activitystore.ActionAttendance, Timestamp: now.Add(-2 * time.Hour)},
		{UserID: actorB, ChurchID: &churchID, Action: activitystore.ActionLogin, Timestamp: now.Add(-3 * time.Hour)},
		// Outside a 1-day window.
		{UserID: actorB, ChurchID: &churchID, Action: activitystore.ActionLogout, Timestamp: now.Add(-48 * time.Hour)},
	}
	for _, e := range entries {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
	return actorA, actorB
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := activity.NewHandler(db, zap.NewNop())
	store := activitystore.New(db)

	churchID := primitive.NewObjectID()
	otherChurch := primitive.NewObjectID()
	actorA, _ := seedEntries(t, store, churchID)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.Create(ctx, activitystore.Entry{
		UserID:   primitive.NewObjectID(),
		ChurchID: &otherChurch,
		Action:   activitystore.ActionLogin,
	}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	list := func(user testutil.TestUser, query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/activity"+query, user))
		return rec
	}
	parse := func(t *testing.T, rec *httptest.ResponseRecorder) []activitystore.Entry {
		t.Helper()
		var resp struct {
			Entries []activitystore.Entry `json:"entries"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		return resp.Entries
	}

	t.Run("scoped to own church newest first", func(t *testing.T) {
		rec := list(testutil.LeaderUser(churchID), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		entries := parse(t, rec)
		if len(entries) != 4 {
			t.Fatalf("got %d entries, want 4", len(entries))
		}
		if entries[0].Action != activitystore.ActionLogin {
			t.Errorf("first action = %s, want most recent LOGIN", entries[0].Action)
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].Timestamp.After(entries[i-1].Timestamp) {
				t.Errorf("entries not in newest-first order at %d", i)
			}
		}
	})

	t.Run("action filter", func(t *testing.T) {
		rec := list(testutil.LeaderUser(churchID), "?action=LOGIN")
		entries := parse(t, rec)
		if len(entries) != 2 {
			t.Errorf("got %d LOGIN entries, want 2", len(entries))
		}
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		rec := list(testutil.LeaderUser(churchID), "?action=TELEPORT")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("user filter", func(t *testing.T) {
		rec := list(testutil.LeaderUser(churchID), "?user_id="+actorA.Hex())
		entries := parse(t, rec)
		if len(entries) != 2 {
			t.Errorf("got %d entries for actor, want 2", len(entries))
		}
	})

	t.Run("since filter", func(t *testing.T) {
		since := time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
		rec := list(testutil.LeaderUser(churchID), "?since="+since)
		entries := parse(t, rec)
		if len(entries) != 3 {
			t.Errorf("got %d entries in window, want 3", len(entries))
		}
	})

	t.Run("member role denied", func(t *testing.T) {
		rec := list(testutil.MemberUser(churchID), "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("superuser must pick a church", func(t *testing.T) {
		rec := list(testutil.SuperUser(), "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		rec = list(testutil.SuperUser(), "?church_id="+otherChurch.Hex())
		entries := parse(t, rec)
		if len(entries) != 1 {
			t.Errorf("got %d entries for other church, want 1", len(entries))
		}
	})
}

func TestServeSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := activity.NewHandler(db, zap.NewNop())
	store := activitystore.New(db)

	churchID := primitive.NewObjectID()
	seedEntries(t, store, churchID)

	get := func(query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeSummary(rec, testutil.NewAuthenticatedRequest("GET", "/activity/summary"+query, testutil.AdminUser(churchID)))
		return rec
	}

	t.Run("one day window", func(t *testing.T) {
		rec := get("?days=1")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Days         int                   `json:"days"`
			ActionCounts map[string]int64      `json:"action_counts"`
			TotalActions int64                 `json:"total_actions"`
			ActiveUsers  int64                 `json:"active_users"`
			Recent       []activitystore.Entry `json:"recent"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if resp.Days != 1 {
			t.Errorf("days = %d, want 1", resp.Days)
		}
		if resp.ActionCounts[activitystore.ActionLogin] != 2 {
			t.Errorf("LOGIN count = %d, want 2", resp.ActionCounts[activitystore.ActionLogin])
		}
		if resp.TotalActions != 3 {
			t.Errorf("total = %d, want 3 (48h-old entry excluded)", resp.TotalActions)
		}
		if resp.ActiveUsers != 2 {
			t.Errorf("active users = %d, want 2", resp.ActiveUsers)
		}
		if len(resp.Recent) != 3 {
			t.Errorf("recent = %d entries, want 3", len(resp.Recent))
		}
	})

	t.Run("days out of range", func(t *testing.T) {
		for _, q := range []string{"?days=0", "?days=91", "?days=abc"} {
			if rec := get(q); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", q, rec.Code)
			}
		}
	})
}
