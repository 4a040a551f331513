package api

import (
	"net/http"
	"time"

	"trussfs/internal/logging"
	"trussfs/internal/metrics"
)

const cacheControlNoStore = "no-store, must-revalidate"

type RouterOptions struct {
	Events         EventSource
	PollInterval   time.Duration
	Metrics        *metrics.Registry
	AuthToken      string
	AllowedOrigins []string
	Logger         *logging.Logger
}

// NewRouter serves /events (websocket record stream), /metrics and /logs
// (recent entries of Logger's buffer).
func NewRouter(options RouterOptions) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/events", &EventsHandler{
		Source:         options.Events,
		Interval:       options.PollInterval,
		AuthToken:      options.AuthToken,
		AllowedOrigins: options.AllowedOrigins,
		Logger:         options.Logger,
	})
	mux.Handle("/metrics", &MetricsHandler{
		Registry:  options.Metrics,
		AuthToken: options.AuthToken,
	})
	mux.Handle("/logs", &LogsHandler{
		Logger:    options.Logger,
		AuthToken: options.AuthToken,
	})
	return loggingMiddleware(options.Logger, mux)
}

func setSecurityHeaders(w http.ResponseWriter, cacheControl string) {
	headers := w.Header()
	headers.Set("X-Content-Type-Options", "nosniff")
	if cacheControl != "" {
		headers.Set("Cache-Control", cacheControl)
	}
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Debug("api request", map[string]string{
				"http.route": r.URL.Path,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
		}
		next.ServeHTTP(w, r)
	})
}
