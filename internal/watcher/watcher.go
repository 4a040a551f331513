package watcher

import (
	"strconv"

	"trussfs/internal/buffer"
	"trussfs/internal/logging"
)

// New creates a FileWatcher with default options.
func New() (*FileWatcher, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a FileWatcher and starts its worker.
func NewWithOptions(options Options) (*FileWatcher, error) {
	backend := options.Backend
	if backend == nil {
		native, err := newFSNotifyBackend()
		if err != nil {
			return nil, err
		}
		backend = native
	}

	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	maxWatches := options.MaxWatches
	if maxWatches < 0 {
		maxWatches = 0
	}

	instance := &FileWatcher{
		backend:    backend,
		logger:     logger.Component("watcher"),
		metrics:    options.Metrics,
		maxWatches: maxWatches,
		roots:      make(map[string]*subscription),
		watched:    make(map[string]int),
		queue:      buffer.NewQueue[Event](options.QueueLimit),
	}

	instance.worker.Add(1)
	go func() {
		defer instance.worker.Done()
		instance.backend.Run(instance.deliver, instance.fail)
	}()
	return instance, nil
}

// Poll drains every queued record in arrival order. It never blocks waiting
// for new records; an empty result is not an error.
func (watcher *FileWatcher) Poll() []Event {
	if watcher == nil {
		return nil
	}
	watcher.queueMutex.Lock()
	defer watcher.queueMutex.Unlock()
	if watcher.stopped {
		return nil
	}
	return watcher.queue.Drain()
}

// Close stops the worker and releases every OS subscription. No record is
// queued after Close returns.
func (watcher *FileWatcher) Close() error {
	if watcher == nil {
		return nil
	}

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return nil
	}
	watcher.closed = true
	watcher.roots = make(map[string]*subscription)
	watcher.watched = make(map[string]int)
	watcher.mutex.Unlock()

	watcher.queueMutex.Lock()
	watcher.stopped = true
	watcher.queue.Drain()
	watcher.queueMutex.Unlock()

	err := watcher.backend.Close()
	watcher.worker.Wait()
	watcher.logger.Debug("watcher closed", nil)
	return err
}

// Stats reports current watcher counters.
func (watcher *FileWatcher) Stats() Stats {
	if watcher == nil {
		return Stats{}
	}
	watcher.mutex.Lock()
	active := len(watcher.watched)
	watcher.mutex.Unlock()
	watcher.queueMutex.Lock()
	pending := watcher.queue.Len()
	watcher.queueMutex.Unlock()
	return Stats{
		ActiveWatches:   active,
		Pending:         pending,
		EventsDelivered: watcher.eventsDelivered.Load(),
		EventsDropped:   watcher.eventsDropped.Load(),
		Errors:          watcher.errorCount.Load(),
	}
}

func (watcher *FileWatcher) deliver(event Event) {
	if event.Kind == KindAdd && len(event.Paths) == 1 {
		watcher.followCreatedDir(event.Paths[0])
	}
	watcher.push(event)
}

func (watcher *FileWatcher) fail(err error) {
	if err == nil {
		return
	}
	watcher.errorCount.Add(1)
	watcher.metrics.WatcherError()
	watcher.logWarn("watcher error", map[string]string{
		"error": err.Error(),
	})
	watcher.push(Event{Err: err})
}

func (watcher *FileWatcher) push(event Event) {
	watcher.queueMutex.Lock()
	if watcher.stopped {
		watcher.queueMutex.Unlock()
		return
	}
	dropped := watcher.queue.Push(event)
	watcher.queueMutex.Unlock()

	watcher.eventsDelivered.Add(1)
	watcher.metrics.WatcherEventQueued()
	if dropped {
		watcher.eventsDropped.Add(1)
		watcher.metrics.WatcherEventDropped()
	}
}

func (watcher *FileWatcher) logWarn(message string, fields map[string]string) {
	if watcher == nil || watcher.logger == nil {
		return
	}
	watcher.logger.Warn(message, fields)
}

func (watcher *FileWatcher) logDebug(message, path string, activeCount int) {
	if watcher == nil || watcher.logger == nil {
		return
	}
	watcher.logger.Debug(message, map[string]string{
		"path":           path,
		"active_watches": strconv.Itoa(activeCount),
	})
}
