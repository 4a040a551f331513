// Package metrics counts handle traffic, failures and watcher events.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

type Registry struct {
	watcherEventsQueued  atomic.Int64
	watcherEventsDropped atomic.Int64
	watcherErrors        atomic.Int64
	pools                sync.Map
	failures             sync.Map
}

type poolStats struct {
	allocated atomic.Int64
	freed     atomic.Int64
}

var Default = &Registry{}

func (r *Registry) HandleAllocated(pool string) {
	if r == nil {
		return
	}
	r.pool(pool).allocated.Add(1)
}

func (r *Registry) HandleFreed(pool string) {
	if r == nil {
		return
	}
	r.pool(pool).freed.Add(1)
}

// Failure counts a failed operation by error kind.
func (r *Registry) Failure(kind string) {
	if r == nil {
		return
	}
	if strings.TrimSpace(kind) == "" {
		kind = "unknown"
	}
	value, _ := r.failures.LoadOrStore(kind, &atomic.Int64{})
	value.(*atomic.Int64).Add(1)
}

func (r *Registry) WatcherEventQueued() {
	if r == nil {
		return
	}
	r.watcherEventsQueued.Add(1)
}

func (r *Registry) WatcherEventDropped() {
	if r == nil {
		return
	}
	r.watcherEventsDropped.Add(1)
}

func (r *Registry) WatcherError() {
	if r == nil {
		return
	}
	r.watcherErrors.Add(1)
}

// Live returns allocated minus freed handles for a pool.
func (r *Registry) Live(pool string) int64 {
	if r == nil {
		return 0
	}
	stats := r.pool(pool)
	return stats.allocated.Load() - stats.freed.Load()
}

func (r *Registry) Failures(kind string) int64 {
	if r == nil {
		return 0
	}
	value, ok := r.failures.Load(kind)
	if !ok {
		return 0
	}
	return value.(*atomic.Int64).Load()
}

func (r *Registry) WritePrometheus(writer io.Writer) error {
	if r == nil {
		return nil
	}

	writeCounter(writer, "trussfs_watcher_events_queued_total", "Watcher records queued for polling", r.watcherEventsQueued.Load())
	writeCounter(writer, "trussfs_watcher_events_dropped_total", "Watcher records dropped by the queue limit", r.watcherEventsDropped.Load())
	writeCounter(writer, "trussfs_watcher_errors_total", "Notifier errors delivered in-band", r.watcherErrors.Load())

	pools := keys(&r.pools)
	writeHelp(writer, "trussfs_handles_allocated_total", "Handles issued per pool")
	fmt.Fprintln(writer, "# TYPE trussfs_handles_allocated_total counter")
	writeHelp(writer, "trussfs_handles_freed_total", "Handles released per pool")
	fmt.Fprintln(writer, "# TYPE trussfs_handles_freed_total counter")
	for _, name := range pools {
		stats := r.pool(name)
		label := formatLabel(name)
		fmt.Fprintf(writer, "trussfs_handles_allocated_total{pool=%s} %d\n", label, stats.allocated.Load())
		fmt.Fprintf(writer, "trussfs_handles_freed_total{pool=%s} %d\n", label, stats.freed.Load())
	}

	kinds := keys(&r.failures)
	writeHelp(writer, "trussfs_failures_total", "Failed operations per error kind")
	fmt.Fprintln(writer, "# TYPE trussfs_failures_total counter")
	for _, kind := range kinds {
		fmt.Fprintf(writer, "trussfs_failures_total{kind=%s} %d\n", formatLabel(kind), r.Failures(kind))
	}

	return nil
}

func (r *Registry) pool(name string) *poolStats {
	value, _ := r.pools.LoadOrStore(name, &poolStats{})
	return value.(*poolStats)
}

func keys(m *sync.Map) []string {
	var names []string
	m.Range(func(key, _ any) bool {
		if name, ok := key.(string); ok {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

func writeHelp(writer io.Writer, metric, help string) {
	fmt.Fprintf(writer, "# HELP %s %s\n", metric, help)
}

func writeCounter(writer io.Writer, metric, help string, value int64) {
	writeHelp(writer, metric, help)
	fmt.Fprintf(writer, "# TYPE %s counter\n", metric)
	fmt.Fprintf(writer, "%s %d\n", metric, value)
}

func formatLabel(value string) string {
	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("\"%s\"", escaped)
}
