package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", rr.Code)
	}
	return rr.Body.String()
}

func metricLine(body, prefix string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}

func TestMetricsMiddleware_InflightByMethod(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusAccepted)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPatch, "/slow-patch", nil)
		MetricsMiddleware(next).ServeHTTP(httptest.NewRecorder(), req)
	}()
	<-entered

	gauge := `promptd_http_inflight_requests{method="PATCH"}`
	if line := metricLine(scrape(t), gauge); line != gauge+" 1" {
		close(release)
		<-done
		t.Fatalf("inflight during request: %q", line)
	}
	close(release)
	<-done

	body := scrape(t)
	if line := metricLine(body, gauge); line != gauge+" 0" {
		t.Fatalf("inflight after request: %q", line)
	}
	counter := `promptd_http_requests_total{method="PATCH",path="/slow-patch",status="202"}`
	if line := metricLine(body, counter); line != counter+" 1" {
		t.Fatalf("request counter: %q", line)
	}
}

func TestIncrementBackpressure_DefaultsReason(t *testing.T) {
	IncrementBackpressure("")
	if metricLine(scrape(t), `promptd_http_backpressure_total{reason="unspecified"}`) == "" {
		t.Fatalf("backpressure without a reason not recorded")
	}
}
