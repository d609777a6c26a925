// internal/app/features/members/export.go
package members

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jcsgo/shepherd/internal/app/policy/memberpolicy"
	userstore "github.com/jcsgo/shepherd/internal/app/store/users"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/exportutil"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
)

// ServeExport handles GET /members/export?format=csv|xlsx|json. Leadership
// only; rows carry natural keys (email, church domain, role name) so a file
// can be re-imported into another deployment.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireLeadership(w, r, "only leaders can export the roster"); !g.OK {
		return
	}
	scope := memberpolicy.CanListMembers(r)
	if !scope.CanList {
		httpjson.Error(w, http.StatusForbidden, "you cannot list members")
		return
	}
	churchID, err := listChurch(r, scope)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	ch, err := h.Churches.GetByID(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load church", err))
		return
	}

	users, err := h.Users.List(r.Context(), userstore.ListFilter{ChurchID: churchID})
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list members", err))
		return
	}
	records := make([]exportutil.MemberRecord, 0, len(users))
	for i := range users {
		records = append(records, exportutil.FromUser(&users[i], ch.Domain))
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	name := fmt.Sprintf("members_%s_%s", ch.Domain, stamp)

	switch r.URL.Query().Get("format") {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
		err = exportutil.WriteCSV(w, records)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.xlsx"`)
		err = exportutil.WriteXLSX(w, records)
	case "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.json"`)
		err = exportutil.WriteJSON(w, records)
	default:
		httpjson.Error(w, http.StatusBadRequest, "format must be csv, xlsx, or json")
		return
	}
	if err != nil {
		// Headers are already out; all that is left is logging.
		h.Log.Error("write roster export", zap.Error(err))
	}
}
