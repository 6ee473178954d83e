package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Session routes
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.openSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Patch("/", s.renameSession)

			r.Post("/touch", s.touchSession)
			r.Post("/close", s.closeSession)

			// Turns
			r.Get("/turn", s.listTurns)
			r.Post("/turn", s.appendTurn)

			// Context assembly
			r.Get("/context", s.getContext)
			r.Post("/summary", s.refreshSummary)
		})
	})

	// Administrative operations
	r.Route("/admin", func(r chi.Router) {
		r.Post("/session/{sessionID}/archive", s.archiveSession)
		r.Post("/sweep", s.runSweep)
	})

	// Event streaming (SSE)
	r.Get("/event", s.globalEvents)

	// Health
	r.Get("/health", s.health)
}
