package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_nilMetrics(t *testing.T) {
	var m *Metrics
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)
	m.ObserveLoad(LoadOK, time.Second)
	m.ObserveRender(1, 1, time.Millisecond)
	m.SessionOpened()

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if got := rr.Body.String(); !strings.Contains(got, "metrics unavailable") {
		t.Fatalf("expected body to mention metrics unavailable, got %q", got)
	}
}

func TestHandler_exposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/readyz", http.StatusOK, 12*time.Millisecond)
	m.ObserveLoad(LoadOK, 40*time.Millisecond)
	m.ObserveLoad(LoadStale, 90*time.Millisecond)
	m.ObserveRender(4, 3, 2*time.Millisecond)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	m.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := rr.Body.String()
	for _, want := range []string{
		"topomap_http_requests_total{method=\"GET\",path=\"/readyz\",status=\"200\"} 1",
		"topomap_topology_loads_total{result=\"ok\"} 1",
		"topomap_topology_loads_total{result=\"stale\"} 1",
		"topomap_topology_load_duration_seconds_count 2",
		"topomap_scene_render_duration_seconds_count 1",
		"topomap_scene_elements{kind=\"marker\"} 4",
		"topomap_viewer_sessions 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in body=%s", want, body)
		}
	}
}
