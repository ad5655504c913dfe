package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

func preview(b []byte) string {
	if len(b) > 400 {
		b = b[:400]
	}
	return string(b)
}

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rr.Code)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/test", "GET", "418")); got != 1 {
		t.Fatalf("requests_total=%v", got)
	}
	if body := scrape(t); !bytes.Contains(body, []byte("llamabridge_http_requests_total")) {
		t.Fatalf("expected llamabridge_http_requests_total in metrics; got: %q", preview(body))
	}
}

// TestMetricsMiddleware_UsesRoutePattern ensures the metrics middleware labels
// by the chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/items/{id}", "GET", "200")); got != 2 {
		t.Fatalf("requests_total{path=/items/{id}}=%v", got)
	}
}

func TestBridgeResultsCounted(t *testing.T) {
	before := testutil.ToFloat64(bridgeResultsTotal.WithLabelValues("not_loaded"))
	h, _ := newTestMux(t)
	do(h, http.MethodPost, "/v1/tokenize", `{"text":"x"}`)
	if got := testutil.ToFloat64(bridgeResultsTotal.WithLabelValues("not_loaded")); got != before+1 {
		t.Fatalf("bridge_results_total{not_loaded}=%v want %v", got, before+1)
	}
}
