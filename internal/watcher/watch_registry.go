package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Watch subscribes path. When recursive is set and path is a directory,
// every directory below it is subscribed as well, including directories
// created later. Watching an existing root again replaces its mode.
func (watcher *FileWatcher) Watch(path string, recursive bool) error {
	if watcher == nil {
		return errors.New("watcher is nil")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	watcher.mutex.Lock()
	closed := watcher.closed
	_, exists := watcher.roots[path]
	watcher.mutex.Unlock()
	if closed {
		return ErrClosed
	}
	if exists {
		if err := watcher.Unwatch(path); err != nil {
			return err
		}
	}

	recursive = recursive && info.IsDir()
	if err := watcher.addPath(path); err != nil {
		return err
	}
	sub := &subscription{recursive: recursive, paths: []string{path}}
	if recursive {
		children, err := watcher.addChildren(path)
		sub.paths = append(sub.paths, children...)
		if err != nil {
			watcher.releasePaths(sub.paths)
			return err
		}
	}

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return ErrClosed
	}
	watcher.roots[path] = sub
	watcher.mutex.Unlock()

	watcher.logger.Debug("watching", map[string]string{
		"path":      path,
		"recursive": fmt.Sprint(recursive),
	})
	return nil
}

// Unwatch removes the subscription rooted at path, releasing every
// directory it added.
func (watcher *FileWatcher) Unwatch(path string) error {
	if watcher == nil {
		return errors.New("watcher is nil")
	}
	path = filepath.Clean(path)

	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return ErrClosed
	}
	sub, ok := watcher.roots[path]
	if !ok {
		watcher.mutex.Unlock()
		return fmt.Errorf("%w: %s", ErrNotWatched, path)
	}
	delete(watcher.roots, path)
	watcher.mutex.Unlock()

	watcher.releasePaths(sub.paths)
	return nil
}

// Roots returns the subscribed root paths.
func (watcher *FileWatcher) Roots() []string {
	if watcher == nil {
		return nil
	}
	watcher.mutex.Lock()
	defer watcher.mutex.Unlock()
	roots := make([]string, 0, len(watcher.roots))
	for path := range watcher.roots {
		roots = append(roots, path)
	}
	return roots
}

func (watcher *FileWatcher) addPath(path string) error {
	watcher.mutex.Lock()
	if watcher.closed {
		watcher.mutex.Unlock()
		return ErrClosed
	}
	if watcher.watched[path] > 0 {
		watcher.watched[path]++
		watcher.mutex.Unlock()
		return nil
	}
	if watcher.maxWatches > 0 && len(watcher.watched) >= watcher.maxWatches {
		watcher.mutex.Unlock()
		return ErrMaxWatchesExceeded
	}
	watcher.watched[path] = 1
	activeCount := len(watcher.watched)
	watcher.mutex.Unlock()

	if err := watcher.backend.Add(path); err != nil {
		watcher.dropPath(path)
		watcher.logWarn("watch add failed", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		return err
	}
	watcher.logDebug("watch added", path, activeCount)
	return nil
}

func (watcher *FileWatcher) releasePaths(paths []string) {
	for _, path := range paths {
		watcher.releasePath(path)
	}
}

func (watcher *FileWatcher) releasePath(path string) {
	watcher.mutex.Lock()
	count := watcher.watched[path]
	if count == 0 {
		watcher.mutex.Unlock()
		return
	}
	if count > 1 {
		watcher.watched[path] = count - 1
		watcher.mutex.Unlock()
		return
	}
	delete(watcher.watched, path)
	activeCount := len(watcher.watched)
	watcher.mutex.Unlock()

	// Deleted directories lose their OS watch on their own, so a failed
	// remove is expected and only worth a debug line.
	if err := watcher.backend.Remove(path); err != nil {
		watcher.logger.Debug("watch remove failed", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	watcher.logDebug("watch removed", path, activeCount)
}

func (watcher *FileWatcher) dropPath(path string) {
	watcher.mutex.Lock()
	count := watcher.watched[path]
	if count > 1 {
		watcher.watched[path] = count - 1
	} else if count == 1 {
		delete(watcher.watched, path)
	}
	watcher.mutex.Unlock()
}

func isWithinPath(parent, child string) bool {
	parentPath := filepath.Clean(parent)
	childPath := filepath.Clean(child)
	rel, err := filepath.Rel(parentPath, childPath)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}
