package groupstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	groupstore "github.com/jcsgo/shepherd/internal/app/store/groups"
	regularstore "github.com/jcsgo/shepherd/internal/app/store/regulars"
	"github.com/jcsgo/shepherd/internal/domain/models"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	leaderID := primitive.NewObjectID()

	created, err := store.Create(ctx, models.Group{
		Name:       "  Kasiglahan Care Group 1 ",
		Type:       models.GroupTypeCare,
		ChurchID:   churchID,
		LeaderID:   leaderID,
		MaxMembers: 12,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Kasiglahan Care Group 1" {
		t.Errorf("name not trimmed: %q", created.Name)
	}
	if !created.Active {
		t.Error("new groups should start active")
	}

	if _, err := store.Create(ctx, models.Group{Name: "X", Type: "SOCIAL", ChurchID: churchID, LeaderID: leaderID, MaxMembers: 5}); err == nil {
		t.Error("expected error for unknown group type")
	}
	if _, err := store.Create(ctx, models.Group{Name: "X", Type: models.GroupTypeCare, ChurchID: churchID, LeaderID: leaderID, MaxMembers: -1}); err == nil {
		t.Error("expected error for negative capacity")
	}

	// Zero capacity is a valid group; it is simply always full.
	empty, err := store.Create(ctx, models.Group{Name: "Waitlist", Type: models.GroupTypeCare, ChurchID: churchID, LeaderID: leaderID})
	if err != nil {
		t.Fatalf("Create with zero capacity failed: %v", err)
	}
	full, err := store.IsFull(ctx, &empty)
	if err != nil {
		t.Fatalf("IsFull failed: %v", err)
	}
	if !full {
		t.Error("a zero-capacity group should report full")
	}
}

func TestStore_AddRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	regulars := regularstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	otherChurch := primitive.NewObjectID()
	leaderID := primitive.NewObjectID()

	group, err := store.Create(ctx, models.Group{
		Name: "Care Group", Type: models.GroupTypeCare,
		ChurchID: churchID, LeaderID: leaderID, MaxMembers: 2,
	})
	if err != nil {
		t.Fatalf("Create group failed: %v", err)
	}

	newMember := func(church primitive.ObjectID) primitive.ObjectID {
		uid := primitive.NewObjectID()
		if _, err := regulars.Create(ctx, models.RegularMember{UserID: uid, ChurchID: church, RoleType: "CM"}); err != nil {
			t.Fatalf("create regular failed: %v", err)
		}
		return uid
	}

	a := newMember(churchID)
	b := newMember(churchID)
	c := newMember(churchID)
	outsider := newMember(otherChurch)

	if err := store.AddMember(ctx, group.ID, a); err != nil {
		t.Fatalf("AddMember(a) failed: %v", err)
	}
	// Adding a member to the group they are in changes nothing.
	if err := store.AddMember(ctx, group.ID, a); err != nil {
		t.Errorf("repeat AddMember should be a no-op, got %v", err)
	}
	if err := store.AddMember(ctx, group.ID, outsider); err != groupstore.ErrWrongChurch {
		t.Errorf("expected ErrWrongChurch, got %v", err)
	}
	if err := store.AddMember(ctx, group.ID, b); err != nil {
		t.Fatalf("AddMember(b) failed: %v", err)
	}
	if err := store.AddMember(ctx, group.ID, c); err != groupstore.ErrGroupFull {
		t.Errorf("expected ErrGroupFull, got %v", err)
	}

	n, err := store.MemberCount(ctx, group.ID)
	if err != nil {
		t.Fatalf("MemberCount failed: %v", err)
	}
	if n != 2 {
		t.Errorf("MemberCount = %d, want 2", n)
	}

	pct, err := store.CapacityPercentage(ctx, &group)
	if err != nil {
		t.Fatalf("CapacityPercentage failed: %v", err)
	}
	if pct != 100.0 {
		t.Errorf("CapacityPercentage = %v, want 100", pct)
	}

	if err := store.RemoveMember(ctx, group.ID, a); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if err := store.RemoveMember(ctx, group.ID, a); err != groupstore.ErrNotInGroup {
		t.Errorf("expected ErrNotInGroup, got %v", err)
	}

	// The freed slot is usable again.
	if err := store.AddMember(ctx, group.ID, c); err != nil {
		t.Fatalf("AddMember(c) after removal failed: %v", err)
	}

	// Adding a member who is in another group moves them.
	second, err := store.Create(ctx, models.Group{
		Name: "Care Group 2", Type: models.GroupTypeCare,
		ChurchID: churchID, LeaderID: leaderID, MaxMembers: 5,
	})
	if err != nil {
		t.Fatalf("Create second group failed: %v", err)
	}
	if err := store.AddMember(ctx, second.ID, c); err != nil {
		t.Fatalf("AddMember into second group failed: %v", err)
	}
	rm, err := regulars.GetByUserID(ctx, c)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if rm.GroupID == nil || *rm.GroupID != second.ID {
		t.Errorf("member was not moved to the second group: %+v", rm.GroupID)
	}
	if n, err := store.MemberCount(ctx, group.ID); err != nil || n != 1 {
		t.Errorf("first group count after move = %d (err %v), want 1", n, err)
	}
}

func TestStore_CapacityPercentage_ZeroMax(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := models.Group{ID: primitive.NewObjectID(), MaxMembers: 0}
	pct, err := store.CapacityPercentage(ctx, &g)
	if err != nil {
		t.Fatalf("CapacityPercentage failed: %v", err)
	}
	if pct != 0 {
		t.Errorf("zero capacity should yield 0, got %v", pct)
	}
}

func TestStore_ListByChurch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	churchID := primitive.NewObjectID()
	leaderID := primitive.NewObjectID()

	mk := func(name, gtype string) models.Group {
		g, err := store.Create(ctx, models.Group{
			Name: name, Type: gtype, ChurchID: churchID, LeaderID: leaderID, MaxMembers: 10,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return g
	}

	mk("Bread of Life", models.GroupTypeCare)
	mk("Worship Team", models.GroupTypeMinistry)
	deactivated := mk("Old Group", models.GroupTypeCare)
	if err := store.SetActive(ctx, deactivated.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	all, err := store.ListByChurch(ctx, churchID, "")
	if err != nil {
		t.Fatalf("ListByChurch failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 active groups, got %d", len(all))
	}

	ministry, err := store.ListByChurch(ctx, churchID, models.GroupTypeMinistry)
	if err != nil {
		t.Fatalf("ListByChurch(MINISTRY) failed: %v", err)
	}
	if len(ministry) != 1 || ministry[0].Name != "Worship Team" {
		t.Errorf("unexpected ministry groups: %v", ministry)
	}
}
