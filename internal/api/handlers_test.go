package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyumbani/rentmatch/internal/confirmation"
	"github.com/nyumbani/rentmatch/internal/domain"
	"github.com/nyumbani/rentmatch/internal/ingestion"
	"github.com/nyumbani/rentmatch/internal/matching"
	"github.com/nyumbani/rentmatch/internal/repository"
	"github.com/nyumbani/rentmatch/internal/statement"
)

const testStatement = `Receipt No.,Completion Time,Details,Transaction Status,Paid In,Withdrawn,Balance
ABC123,01/12/2024 10:00,Received from Jane Doe 0712345678,Completed,5000,0,10000
XYZ789,02/12/2024 14:30,Received from STRANGER 0700111222,Completed,2500,0,12500
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tenantRepo := repository.NewTenantRepo(db)
	rent := decimal.NewFromInt(5000)
	_, err = tenantRepo.BulkInsert([]domain.TenantCandidate{
		{TenantID: "TEN-001", DisplayName: "Jane Doe", Phone: "0712345678", ExpectedRentAmount: &rent, PropertyRef: "NYB-A1"},
		{TenantID: "TEN-002", DisplayName: "John Kamau", Phone: "0722334455", PropertyRef: "NYB-B2"},
	})
	require.NoError(t, err)

	paymentRepo := repository.NewPaymentRepo(db)
	uploadRepo := repository.NewUploadRepo(db)

	parser := statement.NewParser(',')
	resolver := matching.NewResolver(matching.NewScorer(matching.DefaultSettings()), matching.MatchThreshold)
	ingestionSvc := ingestion.NewService(parser, resolver, tenantRepo, uploadRepo)
	gate := confirmation.NewGate(paymentRepo)

	srv := httptest.NewServer(NewRouter(ingestionSvc, gate, paymentRepo, tenantRepo, uploadRepo))
	t.Cleanup(srv.Close)
	return srv
}

func ingestStatement(t *testing.T, srv *httptest.Server, content string) ingestion.IngestResult {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/v1/statements/ingest", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ingestion.IngestResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestIngestAndReview(t *testing.T) {
	srv := newTestServer(t)

	result := ingestStatement(t, srv, testStatement)
	assert.Equal(t, 2, result.RowsParsed)
	assert.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, 1, result.UnmatchedCount)
	require.NotEmpty(t, result.RunID)

	resp, err := http.Get(srv.URL + "/api/v1/runs/" + result.RunID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run ingestion.RunView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	require.Len(t, run.Result.Matched, 1)
	assert.Equal(t, "ABC123", run.Result.Matched[0].Transaction.ReceiptID)
	assert.Equal(t, "TEN-001", run.Result.Matched[0].Tenant.TenantID)
	require.Len(t, run.Result.Unmatched, 1)
	assert.Equal(t, "XYZ789", run.Result.Unmatched[0].ReceiptID)
}

func TestIngestRejectsUnreadableStatement(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "empty.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("   "))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/api/v1/statements/ingest", w.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestConfirmMatchOnceThenConflict(t *testing.T) {
	srv := newTestServer(t)
	result := ingestStatement(t, srv, testStatement)

	url := srv.URL + "/api/v1/runs/" + result.RunID + "/matches/ABC123/confirm"

	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payment domain.Payment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payment))
	assert.Equal(t, "ABC123", payment.ReceiptID)
	assert.Equal(t, "TEN-001", payment.TenantID)
	assert.Equal(t, 100, payment.Confidence)

	// Confirming the same receipt a second time conflicts and writes nothing.
	resp2, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/v1/payments")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var listing struct {
		Payments []domain.Payment `json:"payments"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listing))
	assert.Equal(t, 1, listing.Total)
}

func TestOverrideThenConfirm(t *testing.T) {
	srv := newTestServer(t)
	result := ingestStatement(t, srv, testStatement)

	overrideURL := srv.URL + "/api/v1/runs/" + result.RunID + "/matches/XYZ789/override"
	resp, err := http.Post(overrideURL, "application/json", strings.NewReader(`{"tenant_id":"TEN-002"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var match domain.MatchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&match))
	assert.Equal(t, 100, match.Confidence)
	assert.Equal(t, domain.SourceManual, match.Source)

	confirmURL := srv.URL + "/api/v1/runs/" + result.RunID + "/matches/XYZ789/confirm"
	resp2, err := http.Post(confirmURL, "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusCreated, resp2.StatusCode)

	var payment domain.Payment
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&payment))
	assert.Equal(t, "TEN-002", payment.TenantID)
	assert.Equal(t, 100, payment.Confidence)
}

func TestOverrideUnknownTenant(t *testing.T) {
	srv := newTestServer(t)
	result := ingestStatement(t, srv, testStatement)

	url := srv.URL + "/api/v1/runs/" + result.RunID + "/matches/XYZ789/override"
	resp, err := http.Post(url, "application/json", strings.NewReader(`{"tenant_id":"TEN-999"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/runs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	result := ingestStatement(t, srv, testStatement)

	confirmURL := srv.URL + "/api/v1/runs/" + result.RunID + "/matches/ABC123/confirm"
	resp, err := http.Post(confirmURL, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dashResp, err := http.Get(srv.URL + "/api/v1/dashboard")
	require.NoError(t, err)
	defer dashResp.Body.Close()
	require.Equal(t, http.StatusOK, dashResp.StatusCode)

	var dash struct {
		Payments struct {
			Count       int             `json:"count"`
			TotalAmount decimal.Decimal `json:"total_amount"`
		} `json:"payments"`
		Uploads struct {
			Total          int `json:"total"`
			MatchedTotal   int `json:"matched_total"`
			UnmatchedTotal int `json:"unmatched_total"`
		} `json:"uploads"`
	}
	require.NoError(t, json.NewDecoder(dashResp.Body).Decode(&dash))
	assert.Equal(t, 1, dash.Payments.Count)
	assert.True(t, dash.Payments.TotalAmount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, 1, dash.Uploads.Total)
	assert.Equal(t, 1, dash.Uploads.MatchedTotal)
}
