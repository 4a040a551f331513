package fsapi

import "trussfs/internal/handle"

// Handle types are distinct so that passing a list handle where an archive
// handle is expected does not compile. All three share the raw layout of
// handle.Handle and cross the C boundary as plain uint64 values.
type (
	ArchiveHandle uint64
	ListHandle    uint64
	WatcherHandle uint64
)

const (
	InvalidArchive = ArchiveHandle(handle.Invalid)
	InvalidList    = ListHandle(handle.Invalid)
	InvalidWatcher = WatcherHandle(handle.Invalid)
)

func (h ArchiveHandle) String() string { return handle.Handle(h).String() }
func (h ListHandle) String() string    { return handle.Handle(h).String() }
func (h WatcherHandle) String() string { return handle.Handle(h).String() }
