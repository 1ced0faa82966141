package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylworks/vinylops/internal/aggregation"
	"github.com/vinylworks/vinylops/internal/analytics"
	"github.com/vinylworks/vinylops/internal/fx"
	"github.com/vinylworks/vinylops/internal/records"
)

type stubRows struct{ rows []aggregation.Row }

func (s stubRows) Rows(ctx context.Context, kind records.Kind, start, end string) ([]aggregation.Row, error) {
	return s.rows, nil
}

type stubRates struct{}

func (stubRates) Rates(ctx context.Context) (fx.ExchangeRates, error) { return fx.DefaultRates(), nil }

type failingService struct{}

func (failingService) Summarize(ctx context.Context, req analytics.Request) (analytics.Summary, error) {
	return analytics.Summary{}, errors.New("database unavailable")
}

type stubPDF struct {
	last analytics.Summary
}

func (s *stubPDF) RenderSummary(ctx context.Context, sum analytics.Summary) ([]byte, error) {
	s.last = sum
	return []byte("%PDF-1.4"), nil
}

func newTestRouter(t *testing.T, svc AnalyticsService, pdf PDFService) http.Handler {
	t.Helper()
	if svc == nil {
		engine := aggregation.NewEngine(aggregation.Calendar{Location: time.UTC, WeekStart: time.Monday}, fx.NewNormalizer(fx.DefaultRates()))
		rows := stubRows{rows: []aggregation.Row{
			{ID: "1", Date: "2025-06-05", Partner: "A", Currency: "JPY", Amount: 15000, Confirmed: true},
			{ID: "2", Date: "2025-06-20", Partner: "A", Currency: "USD", Amount: 100},
		}}
		svc = analytics.NewService(rows, stubRates{}, engine, nil, nil)
	}
	r := chi.NewRouter()
	NewHandler(nil, svc, pdf).MountRoutes(r)
	return r
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(rr, req)
	return rr
}

func TestSummaryJSON(t *testing.T) {
	rr := get(newTestRouter(t, nil, nil), "/analytics/orders?unit=month&start=2025-06-01&end=2025-06-30")
	require.Equal(t, http.StatusOK, rr.Code)

	var sum analytics.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, records.KindOrders, sum.Kind)
	require.Len(t, sum.Buckets, 1)
	assert.InDelta(t, 200, sum.Buckets[0].TotalUSD, 1e-9)
	require.Len(t, sum.Partners, 1)
	assert.Equal(t, 1, sum.Partners[0].Confirmed)
	assert.Equal(t, 1, sum.Partners[0].Pending)
}

func TestSummaryDefaultsToMonth(t *testing.T) {
	rr := get(newTestRouter(t, nil, nil), "/analytics/sales")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"unit":"month"`)
}

func TestSummaryRejectsBadParameters(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	for _, target := range []string{
		"/analytics/refunds",
		"/analytics/orders?unit=quarter",
		"/analytics/orders?start=06/01/2025",
		"/analytics/orders?start=2025-00-01&end=2025-06-30",
		"/analytics/orders?end=2025-02-30",
	} {
		rr := get(router, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), `"status":400`, target)
	}
}

func TestSummaryServiceFailure(t *testing.T) {
	rr := get(newTestRouter(t, failingService{}, nil), "/analytics/orders")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "database unavailable")
}

func TestCSVExport(t *testing.T) {
	rr := get(newTestRouter(t, nil, nil), "/analytics/payments/export.csv?unit=week&start=2025-06-01")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="payments-week-2025-06-01.csv"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Metric,Value"))
}

func TestXLSXExport(t *testing.T) {
	rr := get(newTestRouter(t, nil, nil), "/analytics/orders/export.xlsx")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"), "xlsx is a zip archive")
}

func TestPDFExport(t *testing.T) {
	pdf := &stubPDF{}
	rr := get(newTestRouter(t, nil, pdf), "/analytics/orders/export.pdf?unit=day")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rr.Body.String())
	assert.Equal(t, aggregation.UnitDay, pdf.last.Unit)
}

func TestPDFExportWithoutRenderer(t *testing.T) {
	rr := get(newTestRouter(t, nil, nil), "/analytics/orders/export.pdf")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
