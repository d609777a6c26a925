// internal/app/features/churches/churches.go
package churches

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	churchstore "github.com/jcsgo/shepherd/internal/app/store/churches"
	"github.com/jcsgo/shepherd/internal/app/system/activitylog"
	"github.com/jcsgo/shepherd/internal/app/system/apperr"
	"github.com/jcsgo/shepherd/internal/app/system/authutil"
	"github.com/jcsgo/shepherd/internal/app/system/gates"
	"github.com/jcsgo/shepherd/internal/app/system/httpjson"
	"github.com/jcsgo/shepherd/internal/app/system/lifecycle"
	"github.com/jcsgo/shepherd/internal/domain/models"
)

// churchItem is the selection-page view of one church.
type churchItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Location string `json:"location"`
}

// regionGroup is one location with its churches, for the selection page.
type regionGroup struct {
	Location string       `json:"location"`
	Churches []churchItem `json:"churches"`
}

func toItem(c models.Church) churchItem {
	return churchItem{
		ID:       c.ID.Hex(),
		Name:     c.Name,
		Domain:   c.Domain,
		Location: c.Location,
	}
}

// ServeList handles GET /churches. Public: the church selection page lists
// active churches grouped by location.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Churches.ListActive(r.Context())
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("list churches", err))
		return
	}

	byLoc := make(map[string][]churchItem)
	for _, c := range list {
		byLoc[c.Location] = append(byLoc[c.Location], toItem(c))
	}
	regions := make([]regionGroup, 0, len(byLoc))
	for loc, items := range byLoc {
		regions = append(regions, regionGroup{Location: loc, Churches: items})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Location < regions[j].Location })

	httpjson.OK(w, map[string]any{"regions": regions})
}

// ServeDetect handles GET /churches/detect?email=. Public: resolves which
// church an email address belongs to from its <domain>.jcsgo.com suffix.
func (h *Handler) ServeDetect(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	domain, ok := authutil.ChurchDomainFromEmail(email)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "email is not a church address")
		return
	}
	c, err := h.Churches.GetByDomain(r.Context(), domain)
	if err != nil {
		if err == churchstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "no church for this email domain")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("detect church", err))
		return
	}
	if !c.Active {
		httpjson.Error(w, http.StatusNotFound, "no church for this email domain")
		return
	}
	httpjson.OK(w, toItem(*c))
}

// registerRequest is the public registration payload.
type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source,omitempty"`
	InvitedBy string `json:"invited_by,omitempty"`
}

// HandleRegister handles POST /churches/{id}/register. Public when the
// church allows public registration; always creates the user as a new
// friend on timer step 1.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	churchID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid church id")
		return
	}

	ch, err := h.Churches.GetByID(r.Context(), churchID)
	if err != nil {
		if err == churchstore.ErrNotFound {
			httpjson.Error(w, http.StatusNotFound, "church not found")
			return
		}
		httpjson.WriteErr(w, h.Log, apperr.Storage("load church", err))
		return
	}
	if !ch.Active {
		httpjson.Error(w, http.StatusNotFound, "church not found")
		return
	}

	cfg, err := h.Settings.Get(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("load church settings", err))
		return
	}
	if !cfg.AllowPublicRegistration {
		httpjson.Error(w, http.StatusForbidden, "this church does not accept public registration")
		return
	}

	var req registerRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	reg := lifecycle.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		ChurchID:  churchID,
		Source:    req.Source,
		IPAddress: activitylog.ClientIP(r),
	}
	if req.InvitedBy != "" {
		inviterID, err := primitive.ObjectIDFromHex(req.InvitedBy)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid inviter id")
			return
		}
		reg.InvitedBy = &inviterID
	}

	u, err := h.Lifecycle.Register(r.Context(), reg)
	if err != nil {
		httpjson.WriteErr(w, h.Log, err)
		return
	}

	resp := map[string]any{
		"id":           u.ID.Hex(),
		"email":        u.Email,
		"full_name":    u.FullName(),
		"timer_status": u.TimerStatus,
	}
	if cfg.RequireEmailVerification {
		// Registration already committed; a failure here is recoverable
		// through the resend endpoint.
		if res, err := h.Verify.Create(r.Context(), u.ID, u.Email, false); err != nil {
			h.Log.Error("create verification token", zap.Error(err))
		} else if err := h.Mail.SendVerification(r.Context(), u.Email, res.Code, res.Token); err != nil {
			h.Log.Error("send verification email", zap.Error(err))
		}
		resp["verification_required"] = true
	}
	httpjson.Respond(w, http.StatusCreated, resp)
}

// ServeStatistics handles GET /churches/{id}/statistics. Requires access to
// the church; counts are computed live from the users collection.
func (h *Handler) ServeStatistics(w http.ResponseWriter, r *http.Request) {
	churchID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid church id")
		return
	}
	if g := gates.RequireChurchAccess(w, r, churchID); !g.OK {
		return
	}

	stats, err := h.Churches.MemberStatistics(r.Context(), churchID)
	if err != nil {
		httpjson.WriteErr(w, h.Log, apperr.Storage("church statistics", err))
		return
	}
	httpjson.OK(w, map[string]any{
		"church_id":       churchID.Hex(),
		"total_members":   stats.TotalMembers,
		"new_friends":     stats.NewFriends,
		"regular_members": stats.RegularMembers,
		"recent_joins":    stats.RecentJoins,
	})
}
