// internal/app/features/activity/routes.go
package activity

import (
	"github.com/go-chi/chi/v5"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// Routes mounts the activity log endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/summary", h.ServeSummary)
	})

	return r
}
