package logging

import (
	"strings"
	"time"
)

type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// severity orders the known levels; unknown levels rank as info.
var severity = map[Level]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

var levelAliases = map[string]Level{
	"trace":   LevelDebug,
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarning,
	"warning": LevelWarning,
	"error":   LevelError,
}

// ParseLevel accepts the level names plus the "trace" and "warn" aliases,
// ignoring case and surrounding space.
func ParseLevel(value string) (Level, bool) {
	level, ok := levelAliases[strings.ToLower(strings.TrimSpace(value))]
	return level, ok
}

func normalizeLevel(level Level) Level {
	if _, ok := severity[level]; ok {
		return level
	}
	return LevelInfo
}

func rank(level Level) int {
	return severity[normalizeLevel(level)]
}

type LogEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

// AtLeast reports whether level is as severe as floor.
func AtLeast(level, floor Level) bool {
	return rank(level) >= rank(floor)
}
