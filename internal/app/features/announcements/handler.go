// internal/app/features/announcements/handler.go
package announcements

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	announcementstore "github.com/jcsgo/shepherd/internal/app/store/announcements"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authz"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// Handler serves church announcements: a current feed for members and
// admin-only management of the full set.
type Handler struct {
	Log           *zap.Logger
	Announcements *announcementstore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Log:           logger,
		Announcements: announcementstore.New(db),
	}
}

func announcementID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// feedChurch resolves which church's announcements are requested.
func feedChurch(r *http.Request) (primitive.ObjectID, error) {
	if authz.IsSuperuser(r) {
		raw := r.URL.Query().Get("church_id")
		if raw == "" {
			return primitive.NilObjectID, apperr.Validation("church_id is required")
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return primitive.NilObjectID, apperr.Validation("invalid church_id")
		}
		return id, nil
	}
	return authz.UserChurchID(r), nil
}

// ServeCurrent handles GET /announcements: the currently visible feed for
// the user's church, urgent first. Every signed-in member of the church can
// read it, new friends included.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAuth(w, r)
	if !g.OK {
		return
	}
	churchID, err := feedChurch(r)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if !authz.CanAccessChurch(r, churchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this church")
		return
	}

	list, err := h.Announcements.ListCurrent(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list announcements", err))
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	httpjson.OK(w, map[string]any{"announcements": list})
}

// ServeAll handles GET /announcements/all: every announcement for the
// church, expired and hidden ones included. Admin only.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can manage announcements")
	if !g.OK {
		return
	}
	churchID, err := feedChurch(r)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if !authz.CanAccessChurch(r, churchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this church")
		return
	}

	list, err := h.Announcements.ListAll(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list announcements", err))
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	httpjson.OK(w, map[string]any{"announcements": list})
}

type announcementRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Priority  string `json:"priority,omitempty"`
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`
}

func (req announcementRequest) dates() (start time.Time, end *time.Time, err error) {
	if req.StartDate != "" {
		start, err = time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return start, nil, apperr.Validation("start_date must be YYYY-MM-DD")
		}
	}
	if req.EndDate != "" {
		e, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return start, nil, apperr.Validation("end_date must be YYYY-MM-DD")
		}
		// The announcement stays visible through the whole end day.
		e = e.Add(24*time.Hour - time.Second)
		end = &e
	}
	if end != nil && !start.IsZero() && end.Before(start) {
		return start, nil, apperr.Validation("end_date is before start_date")
	}
	return start, end, nil
}

// HandleCreate handles POST /announcements. Admin only.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can post announcements")
	if !g.OK {
		return
	}
	churchID, err := feedChurch(r)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if !authz.CanAccessChurch(r, churchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this church")
		return
	}

	var req announcementRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	created, err := h.Announcements.Create(r.Context(), models.Announcement{
		ChurchID:  churchID,
		Title:     req.Title,
		Content:   req.Content,
		Priority:  req.Priority,
		StartDate: start,
		EndDate:   end,
		CreatedBy: g.UserID,
	})
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Validation("%s", err.Error()))
		return
	}
	httpjson.Respond(w, http.StatusCreated, created)
}

// loadManaged loads the announcement and checks church scope for the admin.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) (*models.Announcement, bool) {
	id, ok := announcementID(r)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid announcement id")
		return nil, false
	}
	a, err := h.Announcements.GetByID(r.Context(), id)
	if err != nil {
		if err == announcementstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "announcement not found")
			return nil, false
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load announcement", err))
		return nil, false
	}
	if !authz.CanAccessChurch(r, a.ChurchID) {
		httpjson.Error(w, http.StatusForbidden, "you do not have access to this announcement")
		return nil, false
	}
	return a, true
}

// HandleUpdate handles POST /announcements/{id}. Admin only.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can manage announcements")
	if !g.OK {
		return
	}
	a, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	var req announcementRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	start, end, err := req.dates()
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	upd := models.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		Priority:  req.Priority,
		StartDate: start,
		EndDate:   end,
	}
	if err := h.Announcements.Update(r.Context(), a.ID, upd); err != nil {
		if err == announcementstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "announcement not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Validation("%s", err.Error()))
		return
	}
	httpjson.OK(w, map[string]string{"id": a.ID.Hex(), "status": "updated"})
}

// HandleSetActive handles POST /announcements/{id}/active. Admin only.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can manage announcements")
	if !g.OK {
		return
	}
	a, ok := h.loadManaged(w, r)
	if !ok {
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}
	if err := h.Announcements.SetActive(r.Context(), a.ID, req.Active); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("set announcement active", err))
		return
	}
	httpjson.OK(w, map[string]any{"id": a.ID.Hex(), "active": req.Active})
}

// HandleDelete handles DELETE /announcements/{id}. Admin only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	g := gates.RequireAdmin(w, r, "only church admins can manage announcements")
	if !g.OK {
		return
	}
	a, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	if _, err := h.Announcements.Delete(r.Context(), a.ID); err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("delete announcement", err))
		return
	}
	httpjson.OK(w, map[string]string{"id": a.ID.Hex(), "status": "deleted"})
}
