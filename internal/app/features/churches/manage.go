// internal/app/features/churches/manage.go
package churches

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	settingsstore "github.com/jcsgo/shepherd/internal/app/store/settings"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

type churchForm struct {
	Name     string `json:"name"`
	Domain   string `json:"domain,omitempty"`
	Location string `json:"location,omitempty"`
}

// HandleCreate handles POST /churches. Superuser only; churches are
// provisioned centrally, one per deployment domain.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAuth(w, r); !g.OK {
		return
	}
	if !authz.IsSuperuser(r) {
		httpjson.Error(w, http.StatusForbidden, "only superusers can create churches")
		return
	}

	var req churchForm
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if req.Name == "" || req.Domain == "" {
		httpjson.Error(w, http.StatusBadRequest, "name and domain are required")
		return
	}

	created, err := h.Churches.Create(r.Context(), models.Church{
		Name:     req.Name,
		Domain:   req.Domain,
		Location: req.Location,
	})
	if err != nil {
		if err == churchstore.ErrDuplicateDomain {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("create church", err))
		return
	}

	if err := h.Settings.Save(r.Context(), created.ID, settingsstore.Defaults(created.ID)); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("seed church settings", err))
		return
	}
	httpjson.Respond(w, http.StatusCreated, toItem(created))
}

// HandleUpdate handles POST /churches/{id}. Superuser only. The domain is
// immutable; name and location may change.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAuth(w, r); !g.OK {
		return
	}
	if !authz.IsSuperuser(r) {
		httpjson.Error(w, http.StatusForbidden, "only superusers can edit churches")
		return
	}
	churchID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid church id")
		return
	}

	var req churchForm
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if req.Name == "" {
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	err = h.Churches.Update(r.Context(), churchID, models.Church{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		if err == churchstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "church not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("update church", err))
		return
	}
	httpjson.OK(w, map[string]string{"status": "updated"})
}

// HandleSetActive handles POST /churches/{id}/active. Superuser only;
// deactivation hides the church from selection and login without touching
// its data.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	if g := gates.RequireAuth(w, r); !g.OK {
		return
	}
	if !authz.IsSuperuser(r) {
		httpjson.Error(w, http.StatusForbidden, "only superusers can activate or deactivate churches")
		return
	}
	churchID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid church id")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	if err := h.Churches.SetActive(r.Context(), churchID, req.Active); err != nil {
		if err == churchstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "church not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("set church active", err))
		return
	}
	httpjson.OK(w, map[string]any{"status": "updated", "active": req.Active})
}

// ServeSettings handles GET /churches/{id}/settings for church admins.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	churchID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid church id")
		return
	}
	if g := gates.RequireAdmin(w, r, "only church admins can view settings"); !g.OK {
		return
	}
	if g := gates.RequireChurchAccess(w, r, churchID); !g.OK {
		return
	}

	cfg, err := h.Settings.Get(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load church settings", err))
		return
	}
	httpjson.OK(w, cfg)
}

// HandleSaveSettings handles POST /churches/{id}/settings for church admins.
func (h *Handler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	churchID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid church id")
		return
	}
	if g := gates.RequireAdmin(w, r, "only church admins can change settings"); !g.OK {
		return
	}
	if g := gates.RequireChurchAccess(w, r, churchID); !g.OK {
		return
	}

	var cfg models.ChurchSettings
	if err := httpjson.Decode(w, r, &cfg); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if err := h.Settings.Save(r.Context(), churchID, cfg); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("save church settings", err))
		return
	}
	httpjson.OK(w, map[string]string{"status": "saved"})
}
