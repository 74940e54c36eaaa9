// internal/app/features/contact/routes.go
package contact

import (
	"net/http"

	"github.com/foliokit/contactd/middleware"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the page endpoints; mount at /contact.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePage)
	r.Post("/", h.ServeSubmit)
	r.Post("/field", h.ServeField)
	return r
}

// APIRoutes mounts the JSON endpoint; mount at /api/contact. cors may be a
// pass-through.
func APIRoutes(h *Handler, cors func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(cors)
	r.With(middleware.RequireJSON).Post("/", h.ServeAPI)
	return r
}
