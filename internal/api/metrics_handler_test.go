package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trussfs/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	registry := &metrics.Registry{}
	registry.HandleAllocated("list")
	registry.Failure("not_found")
	handler := NewRouter(RouterOptions{Metrics: registry})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	for _, want := range []string{
		`trussfs_handles_allocated_total{pool="list"} 1`,
		`trussfs_failures_total{kind="not_found"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in:\n%s", want, body)
		}
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}

func TestIsOriginAllowed(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "http://localhost:8080/events", nil)
	request.Host = "localhost:8080"
	if !isOriginAllowed(request, nil) {
		t.Fatal("expected request without origin to be allowed")
	}
	request.Header.Set("Origin", "http://localhost:3000")
	if !isOriginAllowed(request, nil) {
		t.Fatal("expected same-host origin to be allowed")
	}
	request.Header.Set("Origin", "http://evil.example")
	if isOriginAllowed(request, nil) {
		t.Fatal("expected foreign origin to be rejected")
	}
	if !isOriginAllowed(request, []string{"evil.example"}) {
		t.Fatal("expected allow-listed origin to be accepted")
	}
}
