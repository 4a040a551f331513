package main

/*
#include <stdbool.h>
#include <stdint.h>
*/
import "C"

import (
	"math"
	"unsafe"

	"trussfs/internal/fsapi"
	"trussfs/internal/version"
)

const invalidHandle = C.uint64_t(math.MaxUint64)

//export trussfs_version
func trussfs_version() C.uint64_t {
	return C.uint64_t(version.APIRevision)
}

//export trussfs_init
func trussfs_init() C.uint64_t {
	return C.uint64_t(openSession())
}

//export trussfs_shutdown
func trussfs_shutdown(ctx C.uint64_t) {
	closeSession(ctx)
}

//export trussfs_get_error
func trussfs_get_error(ctx C.uint64_t) *C.char {
	s := lookupSession(ctx)
	if s == nil {
		return nil
	}
	return s.lastError()
}

//export trussfs_clear_error
func trussfs_clear_error(ctx C.uint64_t) {
	if s := lookupSession(ctx); s != nil {
		s.clearError()
	}
}

//export trussfs_working_dir
func trussfs_working_dir(ctx C.uint64_t) *C.char {
	s := lookupSession(ctx)
	if s == nil {
		return nil
	}
	return s.dirString(&s.workingDir, s.ctx.WorkingDir)
}

//export trussfs_binary_dir
func trussfs_binary_dir(ctx C.uint64_t) *C.char {
	s := lookupSession(ctx)
	if s == nil {
		return nil
	}
	return s.dirString(&s.binaryDir, s.ctx.BinaryDir)
}

//export trussfs_recursive_makedir
func trussfs_recursive_makedir(ctx C.uint64_t, path *C.char) C.bool {
	s := lookupSession(ctx)
	if s == nil {
		return false
	}
	return C.bool(s.ctx.MakeDirs(C.GoString(path)))
}

//export trussfs_list_dir
func trussfs_list_dir(ctx C.uint64_t, path *C.char, filesOnly C.bool, includeMetadata C.bool) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.ListDir(C.GoString(path), bool(filesOnly), bool(includeMetadata)))
}

//export trussfs_split_path
func trussfs_split_path(ctx C.uint64_t, path *C.char) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.SplitPath(C.GoString(path)))
}

//export trussfs_list_new
func trussfs_list_new(ctx C.uint64_t) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.NewList())
}

//export trussfs_list_free
func trussfs_list_free(ctx C.uint64_t, list C.uint64_t) {
	if s := lookupSession(ctx); s != nil {
		s.freeList(fsapi.ListHandle(list))
	}
}

//export trussfs_list_length
func trussfs_list_length(ctx C.uint64_t, list C.uint64_t) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return 0
	}
	return C.uint64_t(s.ctx.ListLen(fsapi.ListHandle(list)))
}

//export trussfs_list_get
func trussfs_list_get(ctx C.uint64_t, list C.uint64_t, index C.uint64_t) *C.char {
	s := lookupSession(ctx)
	if s == nil {
		return nil
	}
	return s.listItem(fsapi.ListHandle(list), uint64(index))
}

//export trussfs_list_push
func trussfs_list_push(ctx C.uint64_t, list C.uint64_t, value *C.char) C.bool {
	s := lookupSession(ctx)
	if s == nil {
		return false
	}
	return C.bool(s.ctx.ListPush(fsapi.ListHandle(list), C.GoString(value)))
}

//export trussfs_archive_mount
func trussfs_archive_mount(ctx C.uint64_t, path *C.char) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.MountArchive(C.GoString(path)))
}

//export trussfs_archive_free
func trussfs_archive_free(ctx C.uint64_t, archive C.uint64_t) {
	if s := lookupSession(ctx); s != nil {
		s.ctx.FreeArchive(fsapi.ArchiveHandle(archive))
	}
}

//export trussfs_archive_list
func trussfs_archive_list(ctx C.uint64_t, archive C.uint64_t) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.ListArchive(fsapi.ArchiveHandle(archive)))
}

//export trussfs_archive_filesize_name
func trussfs_archive_filesize_name(ctx C.uint64_t, archive C.uint64_t, name *C.char) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return 0
	}
	return C.uint64_t(s.ctx.ArchiveSizeByName(fsapi.ArchiveHandle(archive), C.GoString(name)))
}

//export trussfs_archive_filesize_index
func trussfs_archive_filesize_index(ctx C.uint64_t, archive C.uint64_t, index C.uint64_t) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return 0
	}
	return C.uint64_t(s.ctx.ArchiveSizeByIndex(fsapi.ArchiveHandle(archive), uint64(index)))
}

//export trussfs_archive_read_name
func trussfs_archive_read_name(ctx C.uint64_t, archive C.uint64_t, name *C.char, dest *C.uint8_t, destSize C.uint64_t) C.int64_t {
	s := lookupSession(ctx)
	if s == nil {
		return -1
	}
	return C.int64_t(s.ctx.ReadArchiveByName(fsapi.ArchiveHandle(archive), C.GoString(name), destination(dest, destSize)))
}

//export trussfs_archive_read_index
func trussfs_archive_read_index(ctx C.uint64_t, archive C.uint64_t, index C.uint64_t, dest *C.uint8_t, destSize C.uint64_t) C.int64_t {
	s := lookupSession(ctx)
	if s == nil {
		return -1
	}
	return C.int64_t(s.ctx.ReadArchiveByIndex(fsapi.ArchiveHandle(archive), uint64(index), destination(dest, destSize)))
}

//export trussfs_watcher_create
func trussfs_watcher_create(ctx C.uint64_t, path *C.char, recursive C.bool) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.Watch(C.GoString(path), bool(recursive)))
}

//export trussfs_watcher_augment
func trussfs_watcher_augment(ctx C.uint64_t, watcher C.uint64_t, path *C.char, recursive C.bool) C.bool {
	s := lookupSession(ctx)
	if s == nil {
		return false
	}
	return C.bool(s.ctx.AddWatch(fsapi.WatcherHandle(watcher), C.GoString(path), bool(recursive)))
}

//export trussfs_watcher_unwatch
func trussfs_watcher_unwatch(ctx C.uint64_t, watcher C.uint64_t, path *C.char) C.bool {
	s := lookupSession(ctx)
	if s == nil {
		return false
	}
	return C.bool(s.ctx.Unwatch(fsapi.WatcherHandle(watcher), C.GoString(path)))
}

//export trussfs_watcher_poll
func trussfs_watcher_poll(ctx C.uint64_t, watcher C.uint64_t) C.uint64_t {
	s := lookupSession(ctx)
	if s == nil {
		return invalidHandle
	}
	return C.uint64_t(s.ctx.PollEvents(fsapi.WatcherHandle(watcher)))
}

//export trussfs_watcher_free
func trussfs_watcher_free(ctx C.uint64_t, watcher C.uint64_t) {
	if s := lookupSession(ctx); s != nil {
		s.ctx.FreeWatcher(fsapi.WatcherHandle(watcher))
	}
}

// destination views the caller's buffer without copying. The pointer and
// size are trusted.
func destination(dest *C.uint8_t, size C.uint64_t) []byte {
	if dest == nil || size == 0 {
		return nil
	}
	if uint64(size) > math.MaxInt {
		size = C.uint64_t(math.MaxInt)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(dest)), int(size))
}
