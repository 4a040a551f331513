package fsapi

import (
	"trussfs/internal/fsutil"
	"trussfs/internal/strlist"
)

// WorkingDir returns the process working directory.
func (c *Context) WorkingDir() (string, bool) {
	return c.pathQuery("working_dir", fsutil.WorkingDir)
}

// BinaryDir returns the directory holding the running executable.
func (c *Context) BinaryDir() (string, bool) {
	return c.pathQuery("binary_dir", fsutil.BinaryDir)
}

func (c *Context) pathQuery(operation string, query func() (string, error)) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open(operation) {
		return "", false
	}
	value, err := query()
	if err == nil {
		err = strlist.Validate(value)
	}
	if err != nil {
		c.fail(operation, err)
		return "", false
	}
	return value, true
}

// MakeDirs creates path and any missing parents.
func (c *Context) MakeDirs(path string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open("recursive_makedir") {
		return false
	}
	if err := fsutil.MakeDirs(path); err != nil {
		c.fail("recursive_makedir", err)
		return false
	}
	return true
}

// ListDir lists one level of path. With filesOnly, directories are left out.
// With includeMetadata, every name carries a "{kind} {symlink}:" prefix.
// Entries that cannot be stat'ed are skipped.
func (c *Context) ListDir(path string, filesOnly, includeMetadata bool) ListHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open("list_dir") {
		return InvalidList
	}
	entries, err := fsutil.ReadDir(path, filesOnly)
	if err != nil {
		c.fail("list_dir", err)
		return InvalidList
	}
	items := make([]string, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry.Format(includeMetadata))
	}
	return c.insertList("list_dir", items)
}

// SplitPath lists the components of path in order.
func (c *Context) SplitPath(path string) ListHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open("split_path") {
		return InvalidList
	}
	return c.insertList("split_path", fsutil.SplitPath(path))
}
