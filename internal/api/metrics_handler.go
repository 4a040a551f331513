package api

import (
	"net/http"

	"trussfs/internal/metrics"
)

// MetricsHandler serves the registry in the Prometheus text format.
type MetricsHandler struct {
	Registry  *metrics.Registry
	AuthToken string
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !validateToken(r, h.AuthToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	registry := h.Registry
	if registry == nil {
		registry = metrics.Default
	}
	setSecurityHeaders(w, cacheControlNoStore)
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_ = registry.WritePrometheus(w)
}
