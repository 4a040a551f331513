package fsapi

import (
	"trussfs/internal/handle"
	"trussfs/internal/watcher"
)

// Watch creates a watcher subscribed to path.
func (c *Context) Watch(path string, recursive bool) WatcherHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open("watcher_create") {
		return InvalidWatcher
	}

	options := watcher.Options{
		Logger:     c.logger,
		Metrics:    c.metrics,
		QueueLimit: int(c.settings.Watcher.QueueLimit),
		MaxWatches: int(c.settings.Watcher.MaxWatches),
	}
	if c.newBackend != nil {
		backend, err := c.newBackend()
		if err != nil {
			c.fail("watcher_create", err)
			return InvalidWatcher
		}
		options.Backend = backend
	}
	created, err := watcher.NewWithOptions(options)
	if err != nil {
		c.fail("watcher_create", err)
		return InvalidWatcher
	}
	if err := created.Watch(path, recursive); err != nil {
		_ = created.Close()
		c.fail("watcher_create", err)
		return InvalidWatcher
	}
	c.metrics.HandleAllocated(handle.KindWatcher.String())
	return c.watchers.Insert(created)
}

// AddWatch subscribes another path on an existing watcher.
func (c *Context) AddWatch(h WatcherHandle, path string, recursive bool) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	existing, ok := c.watcher("watcher_augment", h)
	if !ok {
		return false
	}
	if err := existing.Watch(path, recursive); err != nil {
		c.fail("watcher_augment", err)
		return false
	}
	return true
}

// Unwatch drops the subscription rooted at path.
func (c *Context) Unwatch(h WatcherHandle, path string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	existing, ok := c.watcher("watcher_unwatch", h)
	if !ok {
		return false
	}
	if err := existing.Unwatch(path); err != nil {
		c.fail("watcher_unwatch", err)
		return false
	}
	return true
}

// PollEvents drains the records queued on h into a new list. An empty list
// means nothing happened; InvalidList means h does not resolve.
func (c *Context) PollEvents(h WatcherHandle) ListHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	existing, ok := c.watcher("watcher_poll", h)
	if !ok {
		return InvalidList
	}
	events := existing.Poll()
	items := make([]string, 0, len(events))
	for _, event := range events {
		items = append(items, event.String())
	}
	return c.insertList("watcher_poll", items)
}

// FreeWatcher stops h and releases its subscriptions. No record is queued
// once it returns. It reports false, without recording an error, when h does
// not resolve.
func (c *Context) FreeWatcher(h WatcherHandle) bool {
	c.mutex.Lock()
	existing, ok := c.watchers.Remove(h)
	if ok {
		c.metrics.HandleFreed(handle.KindWatcher.String())
	}
	c.mutex.Unlock()
	if !ok {
		return false
	}
	if err := existing.Close(); err != nil {
		c.logger.Debug("watcher close failed", map[string]string{
			"handle": h.String(),
			"error":  err.Error(),
		})
	}
	return true
}

// WatcherStats reports the counters of h.
func (c *Context) WatcherStats(h WatcherHandle) (watcher.Stats, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	existing, ok := c.watcher("watcher_stats", h)
	if !ok {
		return watcher.Stats{}, false
	}
	return existing.Stats(), true
}

func (c *Context) watcher(operation string, h WatcherHandle) (*watcher.FileWatcher, bool) {
	existing, ok := c.watchers.Get(h)
	if !ok {
		c.fail(operation, invalidHandle(h))
	}
	return existing, ok
}

