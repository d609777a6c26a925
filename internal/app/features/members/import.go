// internal/app/features/members/import.go
package members

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/exportutil"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/limits"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// importRowResult reports what happened to one upload row.
type importRowResult struct {
	Line  int    `json:"line,omitempty"`
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

// HandleImport handles POST /members/import (multipart, field "file").
// Admin only. Rows carry natural keys: the church is resolved by domain and
// the role by name. The whole file is validated before any row is written;
// per-row insert failures (duplicate emails) are reported, not fatal.
//
// Imported accounts get an unguessable placeholder password; they cannot
// sign in until an admin sets a real one.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can import members")
	if !g.OK {
		return
	}

	if err := r.ParseMultipartForm(limits.MaxImportUploadSize); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	parsed, err := exportutil.ParseCSV(file)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "could not read CSV: "+err.Error())
		return
	}
	if parsed.HasErrors() {
		rows := make([]importRowResult, 0, len(parsed.Errors))
		for _, re := range parsed.Errors {
			rows = append(rows, importRowResult{Line: re.Line, Error: re.Reason})
		}
		httpjson.Respond(w, http.StatusBadRequest, map[string]any{
			"error": "file has invalid rows; nothing was imported",
			"rows":  rows,
		})
		return
	}

	// Resolve every church domain up front so an unknown domain rejects the
	// file before any insert.
	churchByDomain := make(map[string]*models.Church)
	for _, rec := range parsed.Records {
		if _, seen := churchByDomain[rec.ChurchDomain]; seen {
			continue
		}
		ch, err := h.Churches.GetByDomain(r.Context(), rec.ChurchDomain)
		if err != nil {
			if err == churchstore.ErrNotFound {
				httpjson.Error(w, http.StatusBadRequest, "unknown church domain: "+rec.ChurchDomain)
				return
			}
			httpjson.WriteErr(w, h.Log, apperr.Storage("resolve church", err))
			return
		}
		if !authz.CanAccessChurch(r, ch.ID) {
			httpjson.Error(w, http.StatusForbidden, "you cannot import into church "+rec.ChurchDomain)
			return
		}
		churchByDomain[rec.ChurchDomain] = ch
	}

	var imported []importRowResult
	var failed []importRowResult
	for _, rec := range parsed.Records {
		ch := churchByDomain[rec.ChurchDomain]

		hash, err := authutil.HashPassword(uuid.NewString())
		if err != nil {
			httpjson.WriteErr(w, h.Log, apperr.Storage("generate placeholder password", err))
			return
		}

		u := models.User{
			Email:        rec.Email,
			FirstName:    rec.FirstName,
			LastName:     rec.LastName,
			PasswordHash: hash,
			ChurchID:     &ch.ID,
			Role:         rec.Role,
			PhoneNumber:  rec.Phone,
			NewFriend:    rec.NewFriend,
			TimerStatus:  rec.TimerStatus,
		}
		created, err := h.Users.Create(r.Context(), u)
		if err != nil {
			failed = append(failed, importRowResult{Email: rec.Email, Error: err.Error()})
			continue
		}
		if created.NewFriend {
			// The timer endpoints and follow-up chain need the tracking
			// document, same as a live registration.
			if _, err := h.NewFriends.Create(r.Context(), models.NewFriend{
				UserID:   created.ID,
				ChurchID: ch.ID,
				Source:   "import",
			}); err != nil {
				failed = append(failed, importRowResult{Email: rec.Email, Error: "profile: " + err.Error()})
				continue
			}
		} else if rec.Role != "" {
			if _, err := h.Regulars.EnsureProfile(r.Context(), created.ID, ch.ID, rec.Role); err != nil {
				failed = append(failed, importRowResult{Email: rec.Email, Error: "profile: " + err.Error()})
				continue
			}
		}
		imported = append(imported, importRowResult{Email: created.Email})
	}

	var churchID *primitive.ObjectID
	if cid := authz.UserChurchID(r); cid != primitive.NilObjectID {
		churchID = &cid
	}
	h.Activity.StatusChange(r.Context(), g.UserID, churchID, g.UserID,
		fmt.Sprintf("imported %d members", len(imported)))

	httpjson.OK(w, map[string]any{
		"imported": len(imported),
		"failed":   failed,
	})
}
