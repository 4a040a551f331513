package fsapi

import (
	"fmt"

	"trussfs/internal/archive"
	"trussfs/internal/handle"
)

// MountArchive opens the zip container at path.
func (c *Context) MountArchive(path string) ArchiveHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open("archive_mount") {
		return InvalidArchive
	}
	opened, err := archive.Open(path, archive.Options{
		MaxEntryBytes: uint64(c.settings.Archive.MaxEntryBytes),
	})
	if err != nil {
		c.fail("archive_mount", err)
		return InvalidArchive
	}
	c.metrics.HandleAllocated(handle.KindArchive.String())
	h := c.archives.Insert(opened)
	c.logger.Debug("archive mounted", map[string]string{
		"path":    path,
		"entries": fmt.Sprint(opened.Len()),
		"handle":  h.String(),
	})
	return h
}

// FreeArchive closes h. It reports false, without recording an error, when
// h does not resolve.
func (c *Context) FreeArchive(h ArchiveHandle) bool {
	c.mutex.Lock()
	opened, ok := c.archives.Remove(h)
	if ok {
		c.metrics.HandleFreed(handle.KindArchive.String())
	}
	c.mutex.Unlock()
	if !ok {
		return false
	}
	if err := opened.Close(); err != nil {
		c.logger.Debug("archive close failed", map[string]string{
			"path":  opened.Path(),
			"error": err.Error(),
		})
	}
	return true
}

// ListArchive lists the entries of h as "{index} {size} {kind}:{name}".
func (c *Context) ListArchive(h ArchiveHandle) ListHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	opened, ok := c.archive("archive_list", h)
	if !ok {
		return InvalidList
	}
	entries := opened.Entries()
	items := make([]string, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry.String())
	}
	return c.insertList("archive_list", items)
}

// ArchiveSizeByName returns the decoded size of the named entry, or 0.
func (c *Context) ArchiveSizeByName(h ArchiveHandle, name string) uint64 {
	return c.archiveSize("archive_filesize_name", h, func(opened *archive.Archive) (uint64, error) {
		return opened.SizeByName(name)
	})
}

// ArchiveSizeByIndex returns the decoded size of entry index, or 0.
func (c *Context) ArchiveSizeByIndex(h ArchiveHandle, index uint64) uint64 {
	return c.archiveSize("archive_filesize_index", h, func(opened *archive.Archive) (uint64, error) {
		return opened.SizeByIndex(index)
	})
}

// ReadArchiveByName decodes the named entry into dst and returns the number
// of bytes written. It returns -1 when the entry does not fit, leaving dst
// untouched.
func (c *Context) ReadArchiveByName(h ArchiveHandle, name string, dst []byte) int64 {
	return c.archiveRead("archive_read_name", h, dst, func(opened *archive.Archive) (uint64, error) {
		return opened.SizeByName(name)
	}, func(opened *archive.Archive) ([]byte, error) {
		return opened.ReadByName(name)
	})
}

// ReadArchiveByIndex is ReadArchiveByName addressed by entry index.
func (c *Context) ReadArchiveByIndex(h ArchiveHandle, index uint64, dst []byte) int64 {
	return c.archiveRead("archive_read_index", h, dst, func(opened *archive.Archive) (uint64, error) {
		return opened.SizeByIndex(index)
	}, func(opened *archive.Archive) ([]byte, error) {
		return opened.ReadByIndex(index)
	})
}

func (c *Context) archiveSize(operation string, h ArchiveHandle, size func(*archive.Archive) (uint64, error)) uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	opened, ok := c.archive(operation, h)
	if !ok {
		return 0
	}
	value, err := size(opened)
	if err != nil {
		c.fail(operation, err)
		return 0
	}
	return value
}

func (c *Context) archiveRead(operation string, h ArchiveHandle, dst []byte, size func(*archive.Archive) (uint64, error), read func(*archive.Archive) ([]byte, error)) int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	opened, ok := c.archive(operation, h)
	if !ok {
		return -1
	}
	// The header size rejects short buffers before any decode; the check
	// after decoding still guards against a lying header.
	declared, err := size(opened)
	if err != nil {
		c.fail(operation, err)
		return -1
	}
	if declared > uint64(len(dst)) {
		c.fail(operation, wrapKind(ErrCapacity, fmt.Errorf("entry is %d bytes, buffer holds %d", declared, len(dst))))
		return -1
	}
	data, err := read(opened)
	if err != nil {
		c.fail(operation, err)
		return -1
	}
	if len(data) > len(dst) {
		c.fail(operation, wrapKind(ErrCapacity, fmt.Errorf("entry is %d bytes, buffer holds %d", len(data), len(dst))))
		return -1
	}
	return int64(copy(dst, data))
}

func (c *Context) archive(operation string, h ArchiveHandle) (*archive.Archive, bool) {
	opened, ok := c.archives.Get(h)
	if !ok {
		c.fail(operation, invalidHandle(h))
	}
	return opened, ok
}
