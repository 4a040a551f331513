package watcher

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu      sync.Mutex
	watched map[string]bool
	failAdd map[string]error
	closed  bool

	events    chan Event
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		watched: make(map[string]bool),
		failAdd: make(map[string]error),
		events:  make(chan Event),
		errs:    make(chan error),
		done:    make(chan struct{}),
	}
}

func (b *fakeBackend) Add(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("backend closed")
	}
	if err := b.failAdd[path]; err != nil {
		return err
	}
	b.watched[path] = true
	return nil
}

func (b *fakeBackend) Remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.watched[path] {
		return errors.New("not watched")
	}
	delete(b.watched, path)
	return nil
}

func (b *fakeBackend) Run(deliver func(Event), fail func(error)) {
	for {
		select {
		case event := <-b.events:
			deliver(event)
		case err := <-b.errs:
			fail(err)
		case <-b.done:
			return
		}
	}
}

func (b *fakeBackend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.watched = make(map[string]bool)
		b.mu.Unlock()
		close(b.done)
	})
	return nil
}

func (b *fakeBackend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	paths := make([]string, 0, len(b.watched))
	for path := range b.watched {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// emit hands event to the worker and waits until it has been queued.
func (b *fakeBackend) emit(t *testing.T, watcher *FileWatcher, event Event) {
	t.Helper()
	before := watcher.Stats().EventsDelivered
	b.events <- event
	waitUntil(t, func() bool {
		return watcher.Stats().EventsDelivered > before
	})
}

func (b *fakeBackend) emitError(t *testing.T, watcher *FileWatcher, err error) {
	t.Helper()
	before := watcher.Stats().EventsDelivered
	b.errs <- err
	waitUntil(t, func() bool {
		return watcher.Stats().EventsDelivered > before
	})
}

func waitUntil(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
