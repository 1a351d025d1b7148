package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/me", s.handleMe)

			// Media slot endpoints
			r.Route("/slots", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermContentRead)).Get("/", s.handleListSlots)
				r.With(s.requirePermission(auth.PermContentCreate)).Post("/", s.handleCreateSlot)

				r.Route("/{key}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermContentRead)).Get("/", s.handleGetSlot)
					// Update also checks ownership in the handler via CanAccessResource
					r.With(s.requirePermission(auth.PermMediaUpdate)).Put("/", s.handleUpdateSlot)
					r.With(s.requirePermission(auth.PermContentDelete)).Delete("/", s.handleDeleteSlot)
				})
			})

			// User management endpoints
			r.Route("/users", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermUserManage))

				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Patch("/", s.handleUpdateUser)
					r.Delete("/", s.handleDeleteUser)
					r.Put("/password", s.handleSetUserPassword)
				})
			})

			// Audit trail
			r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
