// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes mounts the login routes. Typically: r.Mount("/login", login.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	r.Post("/verify", h.HandleVerifyEmail)
	r.Get("/verify", h.HandleVerifyLink)
	r.Post("/resend", h.HandleResend)
	return r
}
