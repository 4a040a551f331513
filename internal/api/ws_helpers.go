package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"trussfs/internal/logging"

	"github.com/gorilla/websocket"
)

const (
	wsBufferSize   = 1024
	wsWriteTimeout = 10 * time.Second
)

var errWSNilOutput = errors.New("websocket output channel is nil")

// wsStream writes every value received on Output to one websocket client as
// JSON until the client goes away or Output is closed.
type wsStream[T any] struct {
	AllowedOrigins []string
	Output         <-chan T
	// Encode maps a value to its JSON payload; false skips the value.
	Encode       func(T) (any, bool)
	WriteTimeout time.Duration
	Logger       *logging.Logger
}

type wsFailure struct {
	status int
	reason string
	err    error
}

func (s wsStream[T]) serve(w http.ResponseWriter, r *http.Request) {
	if s.Output == nil {
		s.logFailure(r, wsFailure{status: http.StatusInternalServerError, reason: "no output", err: errWSNilOutput})
		http.Error(w, "stream unavailable", http.StatusInternalServerError)
		return
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r, s.AllowedOrigins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logFailure(r, wsFailure{status: http.StatusBadRequest, reason: "websocket upgrade failed", err: err})
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go s.write(conn, done)

	// Reads only detect the client closing; inbound messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s wsStream[T]) write(conn *websocket.Conn, done <-chan struct{}) {
	timeout := s.WriteTimeout
	if timeout <= 0 {
		timeout = wsWriteTimeout
	}
	for {
		var value T
		select {
		case <-done:
			return
		case next, ok := <-s.Output:
			if !ok {
				return
			}
			value = next
		}
		payload := any(value)
		if s.Encode != nil {
			encoded, keep := s.Encode(value)
			if !keep {
				continue
			}
			payload = encoded
		}
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return
		}
		if err := conn.WriteJSON(payload); err != nil {
			return
		}
	}
}

func (s wsStream[T]) logFailure(r *http.Request, failure wsFailure) {
	logWSFailure(s.Logger, r, failure)
}

// requireWSToken answers 401 and reports false when the request does not
// carry token.
func requireWSToken(w http.ResponseWriter, r *http.Request, token string, logger *logging.Logger) bool {
	if validateToken(r, token) {
		return true
	}
	logWSFailure(logger, r, wsFailure{status: http.StatusUnauthorized, reason: "unauthorized"})
	http.Error(w, "unauthorized", http.StatusUnauthorized)
	return false
}

func logWSFailure(logger *logging.Logger, r *http.Request, failure wsFailure) {
	if logger == nil || r == nil {
		return
	}
	fields := map[string]string{
		"path":       r.URL.Path,
		"status":     strconv.Itoa(failure.status),
		"close_code": strconv.Itoa(closeCodeForStatus(failure.status)),
		"message":    failure.reason,
	}
	if r.RemoteAddr != "" {
		fields["remote_addr"] = r.RemoteAddr
	}
	if failure.err != nil {
		fields["error"] = failure.err.Error()
	}
	if failure.status >= http.StatusInternalServerError {
		logger.Error("websocket error", fields)
		return
	}
	logger.Warn("websocket error", fields)
}

func closeCodeForStatus(status int) int {
	switch {
	case status == http.StatusBadRequest:
		return websocket.CloseProtocolError
	case status == http.StatusServiceUnavailable:
		return websocket.CloseTryAgainLater
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return websocket.ClosePolicyViolation
	default:
		return websocket.CloseInternalServerErr
	}
}
