// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// Routes mounts the dashboard route. Typically: r.Mount("/dashboard", dashboard.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/", h.Serve)
	})
	return r
}
