package announcementstore_test

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	announcementstore "github.com/jcsgo/shepherd/internal/app/store/announcements"
	"github.com/jcsgo/shepherd/internal/domain/models"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	authorID := primitive.NewObjectID()

	created, err := store.Create(ctx, models.Announcement{
		ChurchID:  churchID,
		Title:     " Prayer Meeting ",
		Content:   `<p>Friday 7pm</p><script>alert("x")</script>`,
		CreatedBy: authorID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != "Prayer Meeting" {
		t.Errorf("title not trimmed: %q", created.Title)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("priority should default to MEDIUM, got %q", created.Priority)
	}
	if strings.Contains(created.Content, "script") {
		t.Errorf("content not sanitized: %q", created.Content)
	}
	if !strings.Contains(created.Content, "<p>Friday 7pm</p>") {
		t.Errorf("safe markup stripped: %q", created.Content)
	}

	if _, err := store.Create(ctx, models.Announcement{ChurchID: churchID, Title: "X", Priority: "WHENEVER"}); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestStore_ListCurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	authorID := primitive.NewObjectID()
	now := time.Now().UTC()

	mk := func(title string, start time.Time, end *time.Time) models.Announcement {
		a, err := store.Create(ctx, models.Announcement{
			ChurchID: churchID, Title: title, Content: "c",
			StartDate: start, EndDate: end, CreatedBy: authorID,
		})
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", title, err)
		}
		return a
	}

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	mk("current open-ended", past, nil)
	mk("current bounded", past, &future)
	mk("not started", future, nil)
	mk("expired", yesterday.Add(-time.Hour), &yesterday)
	hidden := mk("hidden", past, nil)
	if err := store.SetActive(ctx, hidden.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	current, err := store.ListCurrent(ctx, churchID)
	if err != nil {
		t.Fatalf("ListCurrent failed: %v", err)
	}
	if len(current) != 2 {
		t.Fatalf("expected 2 current announcements, got %d", len(current))
	}
	for _, a := range current {
		if a.Title != "current open-ended" && a.Title != "current bounded" {
			t.Errorf("unexpected announcement in current list: %q", a.Title)
		}
	}

	all, err := store.ListAll(ctx, churchID)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 announcements in ListAll, got %d", len(all))
	}
}
