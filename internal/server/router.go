package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/mod-warden/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(reviewHandler *handler.ReviewHandler) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reviews", reviewHandler.Create)
		r.Get("/reviews/{reviewID}", reviewHandler.Status)
		r.Post("/reviews/{reviewID}/assign", reviewHandler.Assign)
		r.Post("/reviews/{reviewID}/start", reviewHandler.Start)
		r.Post("/reviews/{reviewID}/complete", reviewHandler.Complete)
		r.Post("/reviews/{reviewID}/cancel", reviewHandler.Cancel)
		r.Get("/audit/{subjectID}/verify", reviewHandler.VerifyChain)
		r.Post("/sweep", reviewHandler.Sweep)
	})

	return r
}
