package members_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/features/members"
	newfriendstore "github.com/jcsgo/shepherd/internal/app/store/newfriends"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/domain/models"
	"github.com/jcsgo/shepherd/internal/testutil"
)

func newHandler(t *testing.T) (*members.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := members.NewHandler(db.Client(), db, nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func withID(r *http.Request, id primitive.ObjectID) *http.Request {
	return testutil.WithChiURLParam(r, "id", id.Hex())
}

func TestServeList(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := f.CreateChurch(ctx, "Kasiglahan", "kasiglahan")
	other := f.CreateChurch(ctx, "San Jose", "sanjose")

	f.CreateUser(ctx, "Ana", "Reyes", "ana@kasiglahan.jcsgo.com", "CM", &church.ID)
	f.CreateUser(ctx, "Carlo", "Lim", "carlo@kasiglahan.jcsgo.com", "CL", &church.ID)
	f.CreateNewFriendUser(ctx, "Ben", "Cruz", "ben@kasiglahan.jcsgo.com", church.ID, 3)
	f.CreateUser(ctx, "Elsewhere", "Person", "x@sanjose.jcsgo.com", "CM", &other.ID)

	list := func(user testutil.TestUser, query string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/members"+query, user))
		return rec
	}

	parse := func(t *testing.T, rec *httptest.ResponseRecorder) (items []map[string]any, total float64) {
		t.Helper()
		var resp struct {
			Members []map[string]any `json:"members"`
			Meta    struct {
				Total float64 `json:"total"`
			} `json:"meta"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		return resp.Members, resp.Meta.Total
	}

	t.Run("leader sees own church only", func(t *testing.T) {
		rec := list(testutil.LeaderUser(church.ID), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		items, total := parse(t, rec)
		if len(items) != 3 || total != 3 {
			t.Errorf("got %d members (total %v), want 3", len(items), total)
		}
	})

	t.Run("status filter new", func(t *testing.T) {
		rec := list(testutil.LeaderUser(church.ID), "?status=new")
		items, _ := parse(t, rec)
		if len(items) != 1 {
			t.Fatalf("got %d members, want 1", len(items))
		}
		if items[0]["email"] != "ben@kasiglahan.jcsgo.com" {
			t.Errorf("member = %v", items[0]["email"])
		}
	})

	t.Run("search by name", func(t *testing.T) {
		rec := list(testutil.LeaderUser(church.ID), "?search=reyes")
		items, _ := parse(t, rec)
		if len(items) != 1 || items[0]["email"] != "ana@kasiglahan.jcsgo.com" {
			t.Errorf("items = %v", items)
		}
	})

	t.Run("superuser must name a church", func(t *testing.T) {
		rec := list(testutil.SuperUser(), "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		rec = list(testutil.SuperUser(), "?church_id="+other.ID.Hex())
		items, _ := parse(t, rec)
		if len(items) != 1 {
			t.Errorf("got %d members, want 1", len(items))
		}
	})

	t.Run("new friend cannot list", func(t *testing.T) {
		rec := list(testutil.NewFriendUser(church.ID), "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestServeDetail(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := f.CreateChurch(ctx, "Tabak", "tabak")
	nf := f.CreateNewFriendUser(ctx, "Ben", "Cruz", "ben@tabak.jcsgo.com", church.ID, 2)
	f.CreateNewFriendProfile(ctx, nf.ID, church.ID, nil)

	t.Run("includes new friend profile", func(t *testing.T) {
		r := withID(testutil.NewAuthenticatedRequest("GET", "/members/x", testutil.LeaderUser(church.ID)), nf.ID)
		rec := httptest.NewRecorder()
		h.ServeDetail(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp map[string]json.RawMessage
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if _, ok := resp["new_friend_profile"]; !ok {
			t.Error("expected new_friend_profile in response")
		}
		if _, ok := resp["recent_activity"]; !ok {
			t.Error("expected recent_activity in response")
		}
	})

	t.Run("unknown member 404", func(t *testing.T) {
		r := withID(testutil.NewAuthenticatedRequest("GET", "/members/x", testutil.LeaderUser(church.ID)), primitive.NewObjectID())
		rec := httptest.NewRecorder()
		h.ServeDetail(rec, r)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("other church denied", func(t *testing.T) {
		r := withID(testutil.NewAuthenticatedRequest("GET", "/members/x", testutil.LeaderUser(primitive.NewObjectID())), nf.ID)
		rec := httptest.NewRecorder()
		h.ServeDetail(rec, r)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestHandleTimerStatusAndPromotion(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := f.CreateChurch(ctx, "San Jose", "sanjose")
	leader := testutil.LeaderUser(church.ID)

	post := func(id primitive.ObjectID, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/members/x/timer", strings.NewReader(body))
		r = withID(testutil.WithUser(r, leader), id)
		rec := httptest.NewRecorder()
		h.HandleTimerStatus(rec, r)
		return rec
	}

	t.Run("moves the timer", func(t *testing.T) {
		nf := f.CreateNewFriendUser(ctx, "Ben", "Cruz", "ben@sanjose.jcsgo.com", church.ID, 1)
		rec := post(nf.ID, `{"status":3}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			TimerStatus int  `json:"timer_status"`
			NewFriend   bool `json:"is_new_friend"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if resp.TimerStatus != 3 || !resp.NewFriend {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("five promotes to regular CM", func(t *testing.T) {
		nf := f.CreateNewFriendUser(ctx, "Lito", "Go", "lito@sanjose.jcsgo.com", church.ID, 4)
		rec := post(nf.ID, `{"status":5}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			NewFriend bool   `json:"is_new_friend"`
			Role      string `json:"role"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if resp.NewFriend || resp.Role != "CM" {
			t.Errorf("resp = %+v, want regular CM", resp)
		}
	})

	t.Run("regular member conflicts", func(t *testing.T) {
		u := f.CreateUser(ctx, "Reg", "Ular", "reg@sanjose.jcsgo.com", "CM", &church.ID)
		rec := post(u.ID, `{"status":2}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("out of range rejected", func(t *testing.T) {
		nf := f.CreateNewFriendUser(ctx, "Out", "Range", "range@sanjose.jcsgo.com", church.ID, 1)
		rec := post(nf.ID, `{"status":7}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("member role cannot manage", func(t *testing.T) {
		nf := f.CreateNewFriendUser(ctx, "No", "Access", "noacc@sanjose.jcsgo.com", church.ID, 1)
		r := httptest.NewRequest("POST", "/members/x/timer", strings.NewReader(`{"status":2}`))
		r = withID(testutil.WithUser(r, testutil.MemberUser(church.ID)), nf.ID)
		rec := httptest.NewRecorder()
		h.HandleTimerStatus(rec, r)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestHandleFollowUp(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := f.CreateChurch(ctx, "Christinville", "christinville")
	leader := testutil.LeaderUser(church.ID)
	nf := f.CreateNewFriendUser(ctx, "Ben", "Cruz", "ben@christinville.jcsgo.com", church.ID, 2)
	f.CreateNewFriendProfile(ctx, nf.ID, church.ID, nil)

	post := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/members/x/follow-up", strings.NewReader(body))
		r = withID(testutil.WithUser(r, leader), nf.ID)
		rec := httptest.NewRecorder()
		h.HandleFollowUp(rec, r)
		return rec
	}

	t.Run("forward move allowed", func(t *testing.T) {
		rec := post(`{"status":"CONTACTED","notes":"called on Sunday"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("backward move conflicts", func(t *testing.T) {
		rec := post(`{"status":"PENDING"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		rec := post(`{"status":"WHATEVER"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not interested is reachable from anywhere", func(t *testing.T) {
		rec := post(`{"status":"NOT_INTERESTED"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestHandleSetRole(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := f.CreateChurch(ctx, "Kasiglahan", "kasiglahan")
	admin := testutil.AdminUser(church.ID)
	u := f.CreateUser(ctx, "Ana", "Reyes", "ana@kasiglahan.jcsgo.com", "CM", &church.ID)
	f.CreateRegularMember(ctx, u.ID, church.ID, "CM")

	post := func(user testutil.TestUser, id primitive.ObjectID, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/members/x/role", strings.NewReader(body))
		r = withID(testutil.WithUser(r, user), id)
		rec := httptest.NewRecorder()
		h.HandleSetRole(rec, r)
		return rec
	}

	t.Run("admin promotes to CL", func(t *testing.T) {
		rec := post(admin, u.ID, `{"role":"CL"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		got, err := userstore.New(f.DB()).GetByID(ctx, u.ID)
		if err != nil {
			t.Fatalf("reload user: %v", err)
		}
		if got.Role != "CL" {
			t.Errorf("role = %q, want CL", got.Role)
		}
	})

	t.Run("admin role not assignable", func(t *testing.T) {
		rec := post(admin, u.ID, `{"role":"ADMIN"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("new friend cannot hold a role", func(t *testing.T) {
		nf := f.CreateNewFriendUser(ctx, "Ben", "Cruz", "ben2@kasiglahan.jcsgo.com", church.ID, 2)
		rec := post(admin, nf.ID, `{"role":"CM"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("leader denied", func(t *testing.T) {
		rec := post(testutil.LeaderUser(church.ID), u.ID, `{"role":"CM"}`)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestServeExport(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := f.CreateChurch(ctx, "Tabak", "tabak")
	f.CreateUser(ctx, "Ana", "Reyes", "ana@tabak.jcsgo.com", "CM", &church.ID)
	f.CreateNewFriendUser(ctx, "Ben", "Cruz", "ben@tabak.jcsgo.com", church.ID, 3)

	t.Run("csv includes natural keys", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest("GET", "/members/export?format=csv", testutil.LeaderUser(church.ID))
		rec := httptest.NewRecorder()
		h.ServeExport(rec, r)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		rows, err := csv.NewReader(rec.Body).ReadAll()
		if err != nil {
			t.Fatalf("parse csv: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("rows = %d, want header + 2", len(rows))
		}
		found := false
		for _, row := range rows[1:] {
			if row[0] == "ana@tabak.jcsgo.com" && row[3] == "tabak" && row[4] == "CM" {
				found = true
			}
		}
		if !found {
			t.Errorf("roster rows missing expected member: %v", rows)
		}
	})

	t.Run("member role denied", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest("GET", "/members/export", testutil.MemberUser(church.ID))
		rec := httptest.NewRecorder()
		h.ServeExport(rec, r)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("bad format rejected", func(t *testing.T) {
		r := testutil.NewAuthenticatedRequest("GET", "/members/export?format=pdf", testutil.LeaderUser(church.ID))
		rec := httptest.NewRecorder()
		h.ServeExport(rec, r)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleImport(t *testing.T) {
	h, f := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.EnsureUserEmailIndex(t, f.DB())

	church := f.CreateChurch(ctx, "San Jose", "sanjose")
	admin := testutil.AdminUser(church.ID)

	upload := func(user testutil.TestUser, csvBody string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "members.csv")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(csvBody)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
		mw.Close()

		r := httptest.NewRequest("POST", "/members/import", &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		r = testutil.WithUser(r, user)
		rec := httptest.NewRecorder()
		h.HandleImport(rec, r)
		return rec
	}

	t.Run("imports rows by natural keys", func(t *testing.T) {
		body := "Email,First Name,Last Name,Church,Role,New Friend,Timer Status\n" +
			"ana@sanjose.jcsgo.com,Ana,Reyes,sanjose,CM,false,5\n" +
			"ben@sanjose.jcsgo.com,Ben,Cruz,sanjose,NEW_FRIEND,true,2\n"
		rec := upload(admin, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Imported int `json:"imported"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if resp.Imported != 2 {
			t.Errorf("imported = %d, want 2", resp.Imported)
		}

		u, err := userstore.New(f.DB()).GetByEmail(ctx, "ben@sanjose.jcsgo.com")
		if err != nil {
			t.Fatalf("load imported user: %v", err)
		}
		if !u.NewFriend || u.TimerStatus != 2 {
			t.Errorf("imported user = new_friend %v timer %d", u.NewFriend, u.TimerStatus)
		}

		// An imported new friend is trackable like a registered one.
		nf, err := newfriendstore.New(f.DB()).GetByUserID(ctx, u.ID)
		if err != nil {
			t.Fatalf("expected new friend tracking profile: %v", err)
		}
		if nf.ChurchID != church.ID || nf.FollowUpStatus != models.FollowUpPending {
			t.Errorf("tracking profile = church %s status %q", nf.ChurchID.Hex(), nf.FollowUpStatus)
		}
	})

	t.Run("duplicate email reported not fatal", func(t *testing.T) {
		body := "Email,First Name,Last Name,Church,Role\n" +
			"ana@sanjose.jcsgo.com,Ana,Reyes,sanjose,CM\n" +
			"carla@sanjose.jcsgo.com,Carla,Lim,sanjose,CM\n"
		rec := upload(admin, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Imported int              `json:"imported"`
			Failed   []map[string]any `json:"failed"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if resp.Imported != 1 || len(resp.Failed) != 1 {
			t.Errorf("imported = %d failed = %d, want 1 and 1", resp.Imported, len(resp.Failed))
		}
	})

	t.Run("unknown church domain rejects the file", func(t *testing.T) {
		body := "Email,First Name,Last Name,Church,Role\n" +
			"x@elsewhere.jcsgo.com,X,Y,elsewhere,CM\n"
		rec := upload(admin, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid rows reject before any write", func(t *testing.T) {
		body := "Email,First Name,Last Name,Church,Role\n" +
			",NoEmail,Person,sanjose,CM\n" +
			"ok@sanjose.jcsgo.com,Fine,Person,sanjose,CM\n"
		rec := upload(admin, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if _, err := userstore.New(f.DB()).GetByEmail(ctx, "ok@sanjose.jcsgo.com"); err == nil {
			t.Error("valid row was written despite file rejection")
		}
	})

	t.Run("admin of another church denied", func(t *testing.T) {
		body := "Email,First Name,Last Name,Church,Role\n" +
			"z@sanjose.jcsgo.com,Z,Z,sanjose,CM\n"
		rec := upload(testutil.AdminUser(primitive.NewObjectID()), body)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403, body %s", rec.Code, rec.Body.String())
		}
	})
}
