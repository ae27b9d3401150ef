package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Replenishment("added")
	m.Replenishment("added")
	m.Replenishment("already_listed")
	m.AccessDenied("list", "edit")
	m.ObserveRequest("GET", "/api/lists/{id}", 200, 15*time.Millisecond)

	if got := testutil.ToFloat64(m.replenishments.WithLabelValues("added")); got != 2 {
		t.Errorf("added = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.replenishments.WithLabelValues("already_listed")); got != 1 {
		t.Errorf("already_listed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.accessDenied.WithLabelValues("list", "edit")); got != 1 {
		t.Errorf("access denied = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/lists/{id}", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Replenishment("added")
	m.AccessDenied("inventory", "view")
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Replenishment("skipped")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `pantry_replenishments_total{outcome="skipped"} 1`) {
		t.Errorf("exposition missing replenishment counter:\n%s", body)
	}
}
