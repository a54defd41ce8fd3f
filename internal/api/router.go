/**
 * @description
 * This file sets up the HTTP router for the credits-service using the
 * go-chi/chi router. It defines the admin API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the credits-service routes.
func NewRouter(h *Handler, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Credits service is healthy"))
	})

	// Protected admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(jwtSecret))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/", h.handleGetUser)
			r.Put("/credits", h.handleSetCredits)
			r.Post("/renew", h.handleRenewCycle)
			r.Put("/plan", h.handleChangePlan)
			r.Post("/plan/sync-credits", h.handleSyncCreditsToPlan)
			r.Put("/finance", h.handleUpdateFinance)
			r.Put("/registration", h.handleUpdateRegistration)
			r.Post("/password", h.handleResetPassword)
			r.Post("/cancellation-request", h.handleCancellationRequest)
			r.Get("/history", h.handleListHistory)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.handleListReports)
			r.Post("/{reportID}/refund", h.handleRefundReport)
			r.Post("/{reportID}/reject", h.handleRejectReport)
			r.Delete("/{reportID}", h.handleDeleteReport)
		})
	})

	return r
}
