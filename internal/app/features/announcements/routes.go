// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/go-chi/chi/v5"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// Routes mounts the announcement endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeCurrent)
		pr.Get("/all", h.ServeAll)
		pr.Post("/", h.HandleCreate)

		pr.Post("/{id}", h.HandleUpdate)
		pr.Post("/{id}/active", h.HandleSetActive)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
