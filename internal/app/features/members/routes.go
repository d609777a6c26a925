// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/members", members.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/export", h.ServeExport)
		pr.Post("/import", h.HandleImport)

		pr.Get("/{id}", h.ServeDetail)
		pr.Post("/{id}/timer", h.HandleTimerStatus)
		pr.Post("/{id}/attendance", h.HandleAttendance)
		pr.Post("/{id}/follow-up", h.HandleFollowUp)
		pr.Post("/{id}/role", h.HandleSetRole)
		pr.Post("/{id}/profile", h.HandleUpdateProfile)
	})

	return r
}
