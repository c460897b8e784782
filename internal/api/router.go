package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/marph91/jimmy/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/stats", h.Stats)
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.Get("/search", h.Search)
	r.Get("/links/unresolved", h.Unresolved)

	return r
}
