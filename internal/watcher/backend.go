package watcher

import (
	"github.com/fsnotify/fsnotify"
)

type fsnotifyBackend struct {
	watcher *fsnotify.Watcher
}

func newFSNotifyBackend() (*fsnotifyBackend, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifyBackend{watcher: watcher}, nil
}

func (b *fsnotifyBackend) Add(path string) error {
	return b.watcher.Add(path)
}

func (b *fsnotifyBackend) Remove(path string) error {
	return b.watcher.Remove(path)
}

func (b *fsnotifyBackend) Close() error {
	return b.watcher.Close()
}

func (b *fsnotifyBackend) Run(deliver func(Event), fail func(error)) {
	events := b.watcher.Events
	errs := b.watcher.Errors
	for events != nil || errs != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			deliver(normalize(event))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fail(err)
		}
	}
}

func normalize(event fsnotify.Event) Event {
	return Event{
		Kind:  kindOf(event.Op),
		Paths: []string{event.Name},
	}
}

// kindOf maps fsnotify ops onto record kinds. Renames and attribute changes
// are modifications of the old name; fsnotify reports no access events.
func kindOf(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Create):
		return KindAdd
	case op.Has(fsnotify.Remove):
		return KindRemove
	case op.Has(fsnotify.Write), op.Has(fsnotify.Rename), op.Has(fsnotify.Chmod):
		return KindModify
	default:
		return KindOther
	}
}
