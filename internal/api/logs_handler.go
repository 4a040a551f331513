package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"trussfs/internal/logging"
)

const defaultLogLimit = 100

// LogsHandler serves the newest entries of a logger's buffer as JSON.
// Query parameters: level (minimum severity) and limit.
type LogsHandler struct {
	Logger    *logging.Logger
	AuthToken string
}

type logQuery struct {
	Level logging.Level
	Limit int
}

func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !validateToken(r, h.AuthToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	buffer := h.Logger.Buffer()
	if buffer == nil {
		http.Error(w, "logs unavailable", http.StatusServiceUnavailable)
		return
	}
	query, message := parseLogQuery(r)
	if message != "" {
		http.Error(w, message, http.StatusBadRequest)
		return
	}

	setSecurityHeaders(w, cacheControlNoStore)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(filterLogEntries(buffer.List(), query))
}

func parseLogQuery(r *http.Request) (logQuery, string) {
	values := r.URL.Query()
	query := logQuery{Limit: defaultLogLimit}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return query, "invalid limit"
		}
		query.Limit = limit
	}
	if raw := strings.TrimSpace(values.Get("level")); raw != "" {
		level, ok := logging.ParseLevel(raw)
		if !ok {
			return query, "invalid log level"
		}
		query.Level = level
	}
	return query, ""
}

// filterLogEntries keeps the newest Limit entries at or above Level, oldest
// first.
func filterLogEntries(entries []logging.LogEntry, query logQuery) []logging.LogEntry {
	filtered := make([]logging.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if query.Level != "" && !logging.AtLeast(entry.Level, query.Level) {
			continue
		}
		filtered = append(filtered, entry)
	}
	if query.Limit > 0 && len(filtered) > query.Limit {
		filtered = filtered[len(filtered)-query.Limit:]
	}
	return filtered
}
