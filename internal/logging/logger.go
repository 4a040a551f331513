// Package logging is the leveled, field-based logger used across trussfs.
//
// Entries are written as single lines (level=... msg="..." key="value") and
// retained in a bounded in-memory buffer, which the HTTP API serves at /logs.
package logging

import (
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const DefaultBufferSize = 256

// Logger is safe for concurrent use. A nil *Logger drops everything.
type Logger struct {
	buffer   *LogBuffer
	sink     *log.Logger
	minLevel Level
	fields   map[string]string
}

func NewLogger(buffer *LogBuffer, minLevel Level) *Logger {
	return NewLoggerWithOutput(buffer, minLevel, os.Stderr)
}

// NewLoggerWithOutput writes lines to output; a nil output keeps entries in
// the buffer only.
func NewLoggerWithOutput(buffer *LogBuffer, minLevel Level, output io.Writer) *Logger {
	if buffer == nil {
		buffer = NewLogBuffer(DefaultBufferSize)
	}
	if output == nil {
		output = io.Discard
	}
	return &Logger{
		buffer:   buffer,
		sink:     log.New(output, "", log.LstdFlags),
		minLevel: normalizeLevel(minLevel),
	}
}

// Discard returns a logger that only keeps entries in its buffer.
func Discard() *Logger {
	return NewLoggerWithOutput(nil, LevelInfo, io.Discard)
}

func (l *Logger) Buffer() *LogBuffer {
	if l == nil {
		return nil
	}
	return l.buffer
}

// With returns a child logger carrying fields on every entry. The child
// shares the parent's buffer and output.
func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.fields = merge(l.fields, fields)
	return &child
}

// Component tags the logger with the subsystem that emits through it.
func (l *Logger) Component(name string) *Logger {
	return l.With(map[string]string{
		"trussfs.category": name,
		"trussfs.source":   "library",
	})
}

func (l *Logger) Debug(message string, fields map[string]string) {
	l.emit(LevelDebug, message, fields)
}

func (l *Logger) Info(message string, fields map[string]string) {
	l.emit(LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]string) {
	l.emit(LevelWarning, message, fields)
}

func (l *Logger) Error(message string, fields map[string]string) {
	l.emit(LevelError, message, fields)
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && rank(level) >= rank(l.minLevel)
}

func (l *Logger) emit(level Level, message string, fields map[string]string) {
	if !l.Enabled(level) {
		return
	}
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Context:   merge(l.fields, fields),
	}
	if l.buffer != nil {
		l.buffer.Add(entry)
	}
	l.sink.Print(entry.line())
}

// merge never aliases either input and returns nil when both are empty.
func merge(base, extra map[string]string) map[string]string {
	if len(base)+len(extra) == 0 {
		return nil
	}
	combined := make(map[string]string, len(base)+len(extra))
	maps.Copy(combined, base)
	maps.Copy(combined, extra)
	return combined
}

func (e LogEntry) line() string {
	var b strings.Builder
	b.WriteString("level=")
	b.WriteString(string(e.Level))
	b.WriteString(" msg=")
	b.WriteString(strconv.Quote(e.Message))
	for _, key := range slices.Sorted(maps.Keys(e.Context)) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(e.Context[key]))
	}
	return b.String()
}
