// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"

	"github.com/jcsgo/shepherd/internal/app/system/auth"
)

// Routes mounts the group endpoints. Everything requires a signed-in user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeDetail)
		pr.Post("/{id}", h.HandleUpdate)
		pr.Post("/{id}/active", h.HandleSetActive)
		pr.Post("/{id}/members", h.HandleAddMember)
		pr.Post("/{id}/members/remove", h.HandleRemoveMember)
	})

	return r
}
