// internal/app/features/churches/routes.go
package churches

import (
	"github.com/go-chi/chi/v5"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// Routes mounts the church routes. Typically: r.Mount("/churches", churches.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public: selection, domain detection, registration.
	r.Get("/", h.ServeList)
	r.Get("/detect", h.ServeDetect)
	r.Post("/{id}/register", h.HandleRegister)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/{id}/statistics", h.ServeStatistics)
		pr.Get("/{id}/settings", h.ServeSettings)
		pr.Post("/{id}/settings", h.HandleSaveSettings)

		pr.Post("/", h.HandleCreate)
		pr.Post("/{id}", h.HandleUpdate)
		pr.Post("/{id}/active", h.HandleSetActive)
	})

	return r
}
