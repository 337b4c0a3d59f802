package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	metrics := NewMetrics()

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/stocks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/stocks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `godown_http_requests_total{code="418",route="/stocks"} 1`)
	require.Contains(t, body, `godown_http_request_duration_seconds_bucket{route="/stocks"`)
}

func TestDomainCounters(t *testing.T) {
	metrics := NewMetrics()

	metrics.DeltaApplied()
	metrics.DeltaApplied()
	metrics.DeltaRejected("insufficient_stock")

	body := scrape(t, metrics)
	require.Contains(t, body, "godown_stock_deltas_applied_total 2")
	require.Contains(t, body, `godown_stock_deltas_rejected_total{reason="insufficient_stock"} 1`)
}

func TestNilMetricsIsInert(t *testing.T) {
	var metrics *Metrics

	metrics.DeltaApplied()
	metrics.DeltaRejected("any")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	metrics.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return strings.TrimSpace(string(raw))
}
