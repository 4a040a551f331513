// Package fsapi is the process-facing aggregate behind the C library: a
// Context owns one arena per resource kind plus a last-error slot, and every
// operation turns collaborator failures into a sentinel return and a stored
// message.
//
// A Context is guarded by a single mutex. cgo calls can arrive on any OS
// thread, so every exported method locks; watcher workers never take the
// Context lock.
package fsapi

import (
	"errors"
	"fmt"
	"sync"

	"trussfs/internal/archive"
	"trussfs/internal/config"
	"trussfs/internal/handle"
	"trussfs/internal/logging"
	"trussfs/internal/metrics"
	"trussfs/internal/strlist"
	"trussfs/internal/version"
	"trussfs/internal/watcher"
)

var errShutdown = wrapKind(ErrInvalidHandle, errors.New("context is shut down"))

type Options struct {
	Logger   *logging.Logger
	Metrics  *metrics.Registry
	Settings config.Settings
	// NewBackend overrides the filesystem notification backend for new
	// watchers. Nil selects fsnotify.
	NewBackend func() (watcher.Backend, error)
}

// Stats reports the live handle count per pool.
type Stats struct {
	Archives int
	Lists    int
	Watchers int
}

type Context struct {
	mutex    sync.Mutex
	archives *handle.Arena[ArchiveHandle, *archive.Archive]
	lists    *handle.Arena[ListHandle, *strlist.List]
	watchers *handle.Arena[WatcherHandle, *watcher.FileWatcher]
	lastErr  error
	closed   bool

	logger     *logging.Logger
	metrics    *metrics.Registry
	settings   config.Settings
	newBackend func() (watcher.Backend, error)
}

// New creates a Context with empty pools and no pending error.
func New(options Options) *Context {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	ctx := &Context{
		archives:   handle.NewArena[ArchiveHandle, *archive.Archive](handle.KindArchive),
		lists:      handle.NewArena[ListHandle, *strlist.List](handle.KindList),
		watchers:   handle.NewArena[WatcherHandle, *watcher.FileWatcher](handle.KindWatcher),
		logger:     logger.Component("context"),
		metrics:    options.Metrics,
		settings:   options.Settings,
		newBackend: options.NewBackend,
	}
	ctx.logger.Info("context created", map[string]string{
		"api_revision": fmt.Sprint(version.APIRevision),
	})
	return ctx
}

// Shutdown releases every archive, list and watcher the Context still owns.
// Watcher workers have stopped by the time it returns. Every handle the
// Context issued is invalid afterwards; calling Shutdown again is a no-op.
func (c *Context) Shutdown() {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return
	}
	c.closed = true
	var openArchives []*archive.Archive
	var openWatchers []*watcher.FileWatcher
	c.archives.Drain(func(_ ArchiveHandle, value *archive.Archive) {
		openArchives = append(openArchives, value)
		c.metrics.HandleFreed(handle.KindArchive.String())
	})
	c.watchers.Drain(func(_ WatcherHandle, value *watcher.FileWatcher) {
		openWatchers = append(openWatchers, value)
		c.metrics.HandleFreed(handle.KindWatcher.String())
	})
	freedLists := c.lists.Len()
	c.lists.Drain(func(ListHandle, *strlist.List) {
		c.metrics.HandleFreed(handle.KindList.String())
	})
	c.mutex.Unlock()

	for _, value := range openArchives {
		_ = value.Close()
	}
	for _, value := range openWatchers {
		_ = value.Close()
	}
	c.logger.Info("context shut down", map[string]string{
		"archives": fmt.Sprint(len(openArchives)),
		"lists":    fmt.Sprint(freedLists),
		"watchers": fmt.Sprint(len(openWatchers)),
	})
}

// Version returns the interface revision. It increases whenever the boundary
// surface changes.
func (c *Context) Version() uint64 {
	return version.APIRevision
}

// LastError returns the message of the most recent failure.
func (c *Context) LastError() (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.lastErr == nil {
		return "", false
	}
	return c.lastErr.Error(), true
}

// Err returns the most recent failure, matchable against the error kinds.
func (c *Context) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastErr
}

func (c *Context) ClearError() {
	c.mutex.Lock()
	c.lastErr = nil
	c.mutex.Unlock()
}

func (c *Context) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return Stats{
		Archives: c.archives.Len(),
		Lists:    c.lists.Len(),
		Watchers: c.watchers.Len(),
	}
}

// fail records err as the pending error. The caller holds the mutex.
func (c *Context) fail(operation string, err error) {
	err = classify(err)
	c.lastErr = fmt.Errorf("%s: %w", operation, err)
	c.metrics.Failure(kindName(err))
	c.logger.Warn("operation failed", map[string]string{
		"operation": operation,
		"error":     err.Error(),
	})
}

func invalidHandle(h fmt.Stringer) error {
	return wrapKind(ErrInvalidHandle, fmt.Errorf("%v does not resolve", h))
}

// insertList stores items as a new list. The caller holds the mutex.
func (c *Context) insertList(operation string, items []string) ListHandle {
	list, err := strlist.FromStrings(items)
	if err != nil {
		c.fail(operation, err)
		return InvalidList
	}
	c.metrics.HandleAllocated(handle.KindList.String())
	return c.lists.Insert(list)
}

// open reports whether the Context still accepts work, recording a failure
// when it does not. The caller holds the mutex.
func (c *Context) open(operation string) bool {
	if c.closed {
		c.fail(operation, errShutdown)
		return false
	}
	return true
}
