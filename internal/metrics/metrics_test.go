package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStatusBucket(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		if got := statusBucket(tt.code); got != tt.want {
			t.Errorf("statusBucket(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	if len(body) == 0 {
		t.Error("Expected non-empty metrics response")
	}

	// Gauges always appear; counters/histograms only after first observation.
	for _, name := range []string{
		"ipsentry_active_websocket_clients",
		"ipsentry_goroutines",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}

	// Trigger a counter so we can verify it appears
	TracksTotal.WithLabelValues("Suspicious").Inc()

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "ipsentry_tracks_total") {
		t.Error("Expected ipsentry_tracks_total after incrementing")
	}
}

func TestTrackFailuresCounterLabels(t *testing.T) {
	TrackFailuresTotal.WithLabelValues("invalid_ip").Inc()
	TrackFailuresTotal.WithLabelValues("bogon").Inc()
	TrackFailuresTotal.WithLabelValues("invalid_ip").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var fam *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "ipsentry_track_failures_total" {
			fam = f
			break
		}
	}
	if fam == nil {
		t.Fatal("ipsentry_track_failures_total not found in gathered families")
	}
	if fam.GetType() != dto.MetricType_COUNTER {
		t.Errorf("Expected counter type, got %v", fam.GetType())
	}

	seen := make(map[string]bool)
	for _, m := range fam.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "reason" {
				seen[l.GetValue()] = true
			}
		}
	}
	for _, reason := range []string{"invalid_ip", "bogon"} {
		if !seen[reason] {
			t.Errorf("Expected reason label %q in gathered metrics", reason)
		}
	}
}

func TestMiddleware_RecordsMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}
