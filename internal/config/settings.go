// Package config resolves trussfs settings from the built-in defaults, an
// optional TOML or YAML file, and TRUSSFS_* environment variables, in that
// order of precedence (last wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"trussfs"
	"trussfs/internal/config/keys"
	"trussfs/internal/logging"
)

const (
	EnvConfigPath      = "TRUSSFS_CONFIG"
	EnvLogLevel        = "TRUSSFS_LOG_LEVEL"
	EnvLogOutput       = "TRUSSFS_LOG_OUTPUT"
	EnvWatchQueueLimit = "TRUSSFS_WATCH_QUEUE_LIMIT"
	EnvWatchMax        = "TRUSSFS_WATCH_MAX"
	EnvArchiveMaxEntry = "TRUSSFS_ARCHIVE_MAX_ENTRY"
)

type Settings struct {
	Log     LogSettings
	Watcher WatcherSettings
	Archive ArchiveSettings
}

type LogSettings struct {
	Level  logging.Level
	Output string
}

type WatcherSettings struct {
	QueueLimit int64
	MaxWatches int64
}

type ArchiveSettings struct {
	MaxEntryBytes int64
}

var envKeys = map[string]string{
	EnvLogLevel:        "log.level",
	EnvLogOutput:       "log.output",
	EnvWatchQueueLimit: "watcher.queue-limit",
	EnvWatchMax:        "watcher.max-watches",
	EnvArchiveMaxEntry: "archive.max-entry-bytes",
}

// Load resolves settings from the process environment.
func Load() (Settings, error) {
	return LoadFromEnv(os.LookupEnv)
}

// LoadFromEnv resolves settings using lookup in place of os.LookupEnv.
func LoadFromEnv(lookup func(string) (string, bool)) (Settings, error) {
	path := ""
	if value, ok := lookup(EnvConfigPath); ok {
		path = strings.TrimSpace(value)
	}
	return LoadSettings(path, trussfs.DefaultConfig, EnvOverrides(lookup))
}

// EnvOverrides collects the TRUSSFS_* variables that are set as dotted
// settings keys.
func EnvOverrides(lookup func(string) (string, bool)) map[string]any {
	overrides := map[string]any{}
	for env, key := range envKeys {
		value, ok := lookup(env)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			overrides[key] = parsed
			continue
		}
		overrides[key] = value
	}
	return overrides
}

func LoadSettings(path string, defaultsPayload []byte, overrides map[string]any) (Settings, error) {
	defaultsStore, err := keys.DecodeTOML(defaultsPayload)
	if err != nil {
		return Settings{}, fmt.Errorf("decode defaults: %w", err)
	}
	defaults := defaultsStore.Flat()
	values := defaultsStore.Flat()

	if strings.TrimSpace(path) != "" {
		payload, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Settings{}, err
			}
		} else {
			store, err := decodeFile(path, payload)
			if err != nil {
				return Settings{}, fmt.Errorf("decode %s: %w", path, err)
			}
			for key, value := range store.Flat() {
				values[key] = value
			}
		}
	}

	for key, value := range overrides {
		normalized := keys.NormalizeKey(key)
		if normalized == "" {
			continue
		}
		values[normalized] = value
	}

	settings := Settings{}
	settings.Log.Level = levelSetting(values, "log.level", levelSetting(defaults, "log.level", logging.LevelWarning))
	settings.Log.Output = stringSetting(values, "log.output", stringSetting(defaults, "log.output", "stderr"))
	settings.Watcher.QueueLimit = intSetting(values, "watcher.queue-limit", 0)
	settings.Watcher.MaxWatches = intSetting(values, "watcher.max-watches", 0)
	settings.Archive.MaxEntryBytes = intSetting(values, "archive.max-entry-bytes", 0)

	return normalizeSettings(settings), nil
}

func decodeFile(path string, payload []byte) (keys.Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return keys.DecodeYAML(payload)
	default:
		return keys.DecodeTOML(payload)
	}
}

func normalizeSettings(settings Settings) Settings {
	if settings.Watcher.QueueLimit < 0 {
		settings.Watcher.QueueLimit = 0
	}
	if settings.Watcher.MaxWatches < 0 {
		settings.Watcher.MaxWatches = 0
	}
	if settings.Archive.MaxEntryBytes < 0 {
		settings.Archive.MaxEntryBytes = 0
	}
	switch settings.Log.Output {
	case "stderr", "stdout", "discard":
	default:
		settings.Log.Output = "stderr"
	}
	return settings
}

// NewLogger builds the logger described by the log section.
func (s Settings) NewLogger() *logging.Logger {
	buffer := logging.NewLogBuffer(logging.DefaultBufferSize)
	switch s.Log.Output {
	case "stdout":
		return logging.NewLoggerWithOutput(buffer, s.Log.Level, os.Stdout)
	case "discard":
		return logging.NewLoggerWithOutput(buffer, s.Log.Level, nil)
	default:
		return logging.NewLoggerWithOutput(buffer, s.Log.Level, os.Stderr)
	}
}

func intSetting(values map[string]any, key string, fallback int64) int64 {
	value, ok := values[keys.NormalizeKey(key)]
	if !ok {
		return fallback
	}
	if parsed, ok := keys.AsInt64(value); ok {
		return parsed
	}
	if text, ok := value.(string); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func stringSetting(values map[string]any, key string, fallback string) string {
	value, ok := values[keys.NormalizeKey(key)]
	if !ok {
		return fallback
	}
	if parsed, ok := value.(string); ok {
		return strings.ToLower(strings.TrimSpace(parsed))
	}
	return fallback
}

func levelSetting(values map[string]any, key string, fallback logging.Level) logging.Level {
	value, ok := values[keys.NormalizeKey(key)]
	if !ok {
		return fallback
	}
	if text, ok := value.(string); ok {
		if level, ok := logging.ParseLevel(text); ok {
			return level
		}
	}
	return fallback
}
