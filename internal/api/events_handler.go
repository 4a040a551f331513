package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"trussfs/internal/logging"
	"trussfs/internal/watcher"
)

const defaultPollInterval = 200 * time.Millisecond

// EventSource drains the watcher records queued since the previous call.
type EventSource interface {
	Poll() ([]string, error)
}

type PollFunc func() ([]string, error)

func (f PollFunc) Poll() ([]string, error) {
	return f()
}

// EventsHandler streams watcher records to websocket clients as JSON. The
// source is polled on Interval while a client is connected; with several
// clients connected each record goes to whichever poll drains it first.
type EventsHandler struct {
	Source         EventSource
	Interval       time.Duration
	AuthToken      string
	AllowedOrigins []string
	Logger         *logging.Logger
}

type eventPayload struct {
	Type      string    `json:"type"`
	Record    string    `json:"record"`
	Kind      string    `json:"kind,omitempty"`
	Paths     []string  `json:"paths,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requireWSToken(w, r, h.AuthToken, h.Logger) {
		return
	}
	if h.Source == nil {
		http.Error(w, "watch events unavailable", http.StatusServiceUnavailable)
		return
	}

	output := make(chan string)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pump(ctx, output)

	wsStream[string]{
		AllowedOrigins: h.AllowedOrigins,
		Output:         output,
		Encode: func(record string) (any, bool) {
			return buildEventPayload(record, time.Now().UTC()), true
		},
		Logger: h.Logger,
	}.serve(w, r)
}

func (h *EventsHandler) pump(ctx context.Context, output chan<- string) {
	interval := h.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		records, err := h.Source.Poll()
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("watch poll failed", map[string]string{
					"error": err.Error(),
				})
			}
			return
		}
		for _, record := range records {
			select {
			case output <- record:
			case <-ctx.Done():
				return
			}
		}
	}
}

// buildEventPayload splits a "{kind}:{path;path}" record. Anything else is a
// notifier error carried in-band.
func buildEventPayload(record string, now time.Time) eventPayload {
	payload := eventPayload{Type: "watch_error", Record: record, Timestamp: now}
	kind, rest, ok := strings.Cut(record, ":")
	if !ok {
		return payload
	}
	switch watcher.Kind(kind) {
	case watcher.KindAdd, watcher.KindAccess, watcher.KindModify, watcher.KindRemove, watcher.KindOther:
	default:
		return payload
	}
	payload.Type = "watch_event"
	payload.Kind = kind
	for _, path := range strings.Split(rest, ";") {
		if path != "" {
			payload.Paths = append(payload.Paths, path)
		}
	}
	return payload
}
