package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyumbani/rentmatch/internal/confirmation"
	"github.com/nyumbani/rentmatch/internal/ingestion"
	"github.com/nyumbani/rentmatch/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	ingestionSvc *ingestion.Service,
	gate *confirmation.Gate,
	paymentRepo *repository.PaymentRepo,
	tenantRepo *repository.TenantRepo,
	uploadRepo *repository.UploadRepo,
) http.Handler {
	h := &Handlers{
		ingestionSvc: ingestionSvc,
		gate:         gate,
		paymentRepo:  paymentRepo,
		tenantRepo:   tenantRepo,
		uploadRepo:   uploadRepo,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion.
		r.Post("/statements/ingest", h.IngestStatement)

		// Run review and resolution.
		r.Get("/runs/{id}", h.GetRun)
		r.Post("/runs/{id}/matches/{receiptID}/override", h.OverrideMatch)
		r.Post("/runs/{id}/matches/{receiptID}/confirm", h.ConfirmMatch)

		// Payments.
		r.Get("/payments", h.ListPayments)

		// Directory and history.
		r.Get("/tenants", h.ListTenants)
		r.Get("/uploads", h.ListUploads)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)
	})

	return r
}
