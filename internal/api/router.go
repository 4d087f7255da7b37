package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted. The REST
// surface is read-mostly; mutations live on the MCP surface except for
// bulk import, which pairs with export for backup tooling.
func NewRouter(deps Deps) chi.Router {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/templates", h.ListTemplates)
		r.Get("/projects", h.ListProjects)
		r.Get("/projects/{id}", h.GetProject)
		r.Get("/projects/{id}/export", h.ExportProject)
		r.Get("/export", h.ExportAll)
		r.Post("/import", h.Import)
		r.Get("/audit", h.Audit)
	})

	return r
}
