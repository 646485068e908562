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
  /api/tenants/{tenant}/employees/*  Roster and breakdowns
  /api/tenants/{tenant}/rates        Rate configuration
  /api/tenants/{tenant}/presence/*   Daily status marks
  /api/tenants/{tenant}/overtime     Overtime entries
  /api/tenants/{tenant}/periods/*    Close/archive/restore lifecycle
  /api/tenants/{tenant}/archives/*   Archived months
  /api/status-codes                  Status taxonomy

TENANCY:
  The tenant comes from the URL. Every store query is tenant-scoped; there
  is no cross-tenant endpoint.

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

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
		r.Get("/status-codes", h.ListStatusCodes)

		r.Route("/tenants/{tenant}", func(r chi.Router) {
			// Employee routes
			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.SaveEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Post("/{id}/deactivate", h.DeactivateEmployee)
				r.Post("/{id}/reactivate", h.ReactivateEmployee)
				r.Get("/{id}/breakdown", h.GetBreakdown)
			})

			// Rate configuration
			r.Route("/rates", func(r chi.Router) {
				r.Get("/", h.ListRates)
				r.Post("/", h.SetRate)
			})

			// Presence routes
			r.Route("/presence", func(r chi.Router) {
				r.Get("/", h.QueryPresence)
				r.Post("/", h.RecordPresence)
				r.Post("/bulk", h.BulkRecordPresence)
			})

			// Overtime routes
			r.Route("/overtime", func(r chi.Router) {
				r.Get("/", h.QueryOvertime)
				r.Post("/", h.RecordOvertime)
			})

			// Consistency gate
			r.Get("/consistency", h.GetConsistency)

			// Period lifecycle
			r.Route("/periods/{period}", func(r chi.Router) {
				r.Get("/", h.GetPeriodStatus)
				r.Get("/events", h.ListPeriodEvents)
				r.Post("/close", h.ClosePeriod)
				r.Post("/archive", h.ArchivePeriod)
				r.Post("/restore", h.RestorePeriod)
			})

			// Archives
			r.Route("/archives", func(r chi.Router) {
				r.Get("/", h.ListArchives)
				r.Get("/{period}", h.GetArchive)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
