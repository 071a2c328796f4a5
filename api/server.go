/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, included in 5xx logs
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/health, /api/dashboard
  /api/employees/*      Employee management and identity linking
  /api/attendance       Attendance recording
  /api/salaries/*       Salary records, reconciliation, payments
  /api/payroll/*        Bulk reconciliation
  /api/transactions     Ledger
  /api/reports/*        Monthly and annual reports (JSON and .xlsx)
  /api/notifications/*  Employee inbox

SECURITY NOTE:
  Authentication happens in front of this service; it forwards the caller
  in X-User-ID / X-User-Role. Authorization is enforced by payroll.Service.

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

// NewRouter creates a new router with all routes configured. allowedOrigins
// defaults to "*" when empty.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", HeaderUserID, HeaderUserRole},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/dashboard", h.Dashboard)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeactivateEmployee)
			r.Post("/{id}/link", h.LinkEmployeeUser)
		})

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.ListAttendance)
			r.Post("/", h.RecordAttendance)
		})

		// Salary routes
		r.Route("/salaries", func(r chi.Router) {
			r.Post("/calculate", h.CalculatePreview)
			r.Get("/", h.ListSalaries)
			r.Post("/", h.CreateSalary)
			r.Get("/{id}", h.GetSalary)
			r.Post("/{id}/calculate", h.ReconcileSalary)
			r.Post("/{id}/payment", h.ProcessPayment)
			r.Post("/{id}/mark-unpaid", h.MarkUnpaid)
		})

		r.Post("/payroll/reconcile", h.Reconcile)
		r.Get("/transactions", h.ListTransactions)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/monthly", h.MonthlyReport)
			r.Get("/monthly/export", h.MonthlyReportExport)
			r.Get("/annual", h.AnnualReport)
			r.Get("/annual/export", h.AnnualReportExport)
		})

		// Notification routes
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/{id}/read", h.MarkNotificationRead)
		})
	})

	return r
}
