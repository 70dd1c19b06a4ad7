package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RankComputed()
	m.CacheHit()
	m.CacheMiss()
	m.SetRegistryVersion(3)
	m.SensorMessage("applied")

	h := m.WrapHandler("test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.RankComputed()
	m.RankComputed()
	m.CacheHit()
	m.CacheMiss()
	m.SetRegistryVersion(42)
	m.SensorMessage("rejected")

	if got := testutil.ToFloat64(m.rankComputations); got != 2 {
		t.Errorf("rank computations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheHits); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.registryVersion); got != 42 {
		t.Errorf("registry version = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.sensorMessages.WithLabelValues("rejected")); got != 1 {
		t.Errorf("rejected sensor messages = %v, want 1", got)
	}
}

func TestWrapHandlerAndExposition(t *testing.T) {
	m := NewMetrics()
	h := m.WrapHandler("leaderboard", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("leaderboard", "404")); got != 1 {
		t.Errorf("requests{leaderboard,404} = %v, want 1", got)
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{
		"ashaboard_http_requests_total",
		"ashaboard_rank_computations_total",
		"ashaboard_registry_version",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition missing %s", name)
		}
	}
}
