package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("GET", "/sessions/{id}/countries", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "app_build_info") || !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
}

func TestObserveUpstream_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("countries", "http_error"))
	ObserveUpstream("countries", "http_error", 0.01)
	ObserveUpstream("countries", "ok", 0.01)
	after := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("countries", "http_error"))
	if after-before != 1 {
		t.Fatalf("http_error delta=%v want 1", after-before)
	}
}

func TestViewCacheCounters(t *testing.T) {
	hits := testutil.ToFloat64(viewCacheResults.WithLabelValues("hit"))
	misses := testutil.ToFloat64(viewCacheResults.WithLabelValues("miss"))
	IncViewCacheHit()
	IncViewCacheHit()
	IncViewCacheMiss()
	if d := testutil.ToFloat64(viewCacheResults.WithLabelValues("hit")) - hits; d != 2 {
		t.Fatalf("hit delta=%v want 2", d)
	}
	if d := testutil.ToFloat64(viewCacheResults.WithLabelValues("miss")) - misses; d != 1 {
		t.Fatalf("miss delta=%v want 1", d)
	}
}

func TestInit_RegistersOnCustomRegistry_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(reg); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	SetSessionsActive(3)
	if got := testutil.ToFloat64(sessionsActive); got != 3 {
		t.Fatalf("sessions_active=%v want 3", got)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "sessions_active" {
			found = true
		}
	}
	if !found {
		t.Fatal("sessions_active not gathered from custom registry")
	}
}
