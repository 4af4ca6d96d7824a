/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/pricing/*        Pricing preview
  /api/sessions/*       Session workflow
  /api/configs/*        Service configuration management
  /api/contractors/*    Contractor management
  /api/clients/*        Client management and invoices
  /api/batches/*        Scholarship batch lines
  /api/admin/*          Admin operations
  /api/scenarios/*      Demo data
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Auth is an external collaborator in this deployment.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Pricing routes
		r.Route("/pricing", func(r chi.Router) {
			r.Post("/preview", h.PreviewPricing)
		})

		// Session routes
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.SubmitSession)
			r.Get("/{id}", h.GetSession)
			r.Get("/{id}/breakdown", h.GetSessionBreakdown)
			r.Post("/{id}/approve", h.ApproveSession)
		})

		// Service config routes
		r.Route("/configs", func(r chi.Router) {
			r.Get("/", h.ListServiceConfigs)
			r.Post("/", h.CreateServiceConfig)
			r.Get("/{id}", h.GetServiceConfig)
		})

		// Contractor routes
		r.Route("/contractors", func(r chi.Router) {
			r.Get("/", h.ListContractors)
			r.Post("/", h.CreateContractor)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}/invoices", h.ListClientInvoices)
		})

		// Scholarship batch routes
		r.Route("/batches", func(r chi.Router) {
			r.Get("/", h.ListBatchLines)
			r.Post("/run", h.RunBatch)
			r.Post("/{id}/transition", h.TransitionBatchLine)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/overrides", h.CreateRateOverride)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/load", h.LoadDemoScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
