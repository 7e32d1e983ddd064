package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/nyumbani/rentmatch/internal/confirmation"
	"github.com/nyumbani/rentmatch/internal/domain"
	"github.com/nyumbani/rentmatch/internal/ingestion"
	"github.com/nyumbani/rentmatch/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	ingestionSvc *ingestion.Service
	gate         *confirmation.Gate
	paymentRepo  *repository.PaymentRepo
	tenantRepo   *repository.TenantRepo
	uploadRepo   *repository.UploadRepo
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithField("component", "api").WithError(err).Error("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- IngestStatement ---

func (h *Handlers) IngestStatement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.ProcessStatement(data, header.Filename)
	if err != nil {
		if errors.Is(err, domain.ErrStatementUnreadable) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- GetRun ---

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.ingestionSvc.SnapshotRun(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// --- OverrideMatch ---

func (h *Handlers) OverrideMatch(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	receiptID := chi.URLParam(r, "receiptID")

	var body struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	match, err := h.ingestionSvc.OverrideMatch(runID, receiptID, body.TenantID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRunNotFound),
			errors.Is(err, domain.ErrTransactionNotFound),
			errors.Is(err, domain.ErrTenantNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, match)
}

// --- ConfirmMatch ---

func (h *Handlers) ConfirmMatch(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	receiptID := chi.URLParam(r, "receiptID")

	match, err := h.ingestionSvc.FindMatch(runID, receiptID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	payment, err := h.gate.Confirm(r.Context(), *match)
	if err != nil {
		var dup *domain.DuplicateReceiptError
		if errors.As(err, &dup) {
			writeError(w, http.StatusConflict, dup.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

// --- ListPayments ---

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PaymentFilter{
		TenantID: q.Get("tenant_id"),
		From:     parseTime(q.Get("from")),
		To:       parseTime(q.Get("to")),
		Page:     parseIntDefault(q.Get("page"), 1),
		Limit:    parseIntDefault(q.Get("limit"), 50),
	}

	payments, total, err := h.paymentRepo.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// --- ListTenants ---

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenantRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// --- ListUploads ---

func (h *Handlers) ListUploads(w http.ResponseWriter, r *http.Request) {
	runs, err := h.uploadRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": runs})
}

// --- GetDashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	totals, err := h.paymentRepo.Totals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	uploads, err := h.uploadRepo.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var matched, unmatched, skipped int
	for _, u := range uploads {
		matched += u.MatchedCount
		unmatched += u.UnmatchedCount
		skipped += u.RowsSkipped
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": totals,
		"uploads": map[string]int{
			"total":              len(uploads),
			"matched_total":      matched,
			"unmatched_total":    unmatched,
			"rows_skipped_total": skipped,
		},
	})
}
