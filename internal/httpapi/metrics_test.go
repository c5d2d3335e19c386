package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"upscaled/internal/imaging"
)

func TestMetricsEndpointExposesHTTPSeries(t *testing.T) {
	h := NewMux(&mockService{scales: []int{4}})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", rr.Code)
	}
	for _, name := range []string{"upscaled_http_requests_total", "upscaled_http_request_duration_seconds", "upscaled_http_inflight_requests"} {
		if !bytes.Contains(rr.Body.Bytes(), []byte(name)) {
			t.Fatalf("metric %s missing from scrape", name)
		}
	}
}

func TestMetricsCountRejectedUpscales(t *testing.T) {
	useTempDirs(t)
	svc := &mockService{scales: []int{4}, err: &imaging.InvalidDimensionsError{Width: 7, Height: 7, Reason: "unsupported factor"}}
	h := NewMux(svc)
	c := httpRequestsTotal.WithLabelValues("/api/upscale", http.MethodPost, "400")
	before := testutil.ToFloat64(c)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "a.png", pngBytes(t, 2, 2), map[string]string{"scale_factor": "7"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Fatalf("400 counter moved by %v, want 1", got)
	}
}
