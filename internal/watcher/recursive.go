package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// addChildren subscribes every directory below root. Directories that
// vanish or cannot be watched are skipped; only the watch limit aborts.
func (watcher *FileWatcher) addChildren(root string) ([]string, error) {
	dirs := collectRecursiveDirs(root)
	added := make([]string, 0, len(dirs))
	for _, path := range dirs {
		if err := watcher.addPath(path); err != nil {
			if errors.Is(err, ErrMaxWatchesExceeded) || errors.Is(err, ErrClosed) {
				return added, err
			}
			continue
		}
		added = append(added, path)
	}
	return added, nil
}

func collectRecursiveDirs(root string) []string {
	dirs := []string{}
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path == root {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs
}

// followCreatedDir extends recursive subscriptions to a directory that
// appeared below one of their roots. Anything created inside it before the
// new watch lands is not reported.
func (watcher *FileWatcher) followCreatedDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	type owner struct {
		root string
		sub  *subscription
	}
	var owners []owner
	watcher.mutex.Lock()
	for root, sub := range watcher.roots {
		if sub.recursive && root != path && isWithinPath(root, path) {
			owners = append(owners, owner{root: root, sub: sub})
		}
	}
	watcher.mutex.Unlock()

	for _, candidate := range owners {
		paths := append([]string{path}, collectRecursiveDirs(path)...)
		for _, dir := range paths {
			if err := watcher.addPath(dir); err != nil {
				continue
			}
			watcher.mutex.Lock()
			current := watcher.roots[candidate.root] == candidate.sub
			if current {
				candidate.sub.paths = append(candidate.sub.paths, dir)
			}
			watcher.mutex.Unlock()
			if !current {
				watcher.releasePath(dir)
			}
		}
	}
}
