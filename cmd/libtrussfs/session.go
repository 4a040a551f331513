package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"trussfs"
	"trussfs/internal/config"
	"trussfs/internal/fsapi"
	"trussfs/internal/handle"
	"trussfs/internal/logging"
	"trussfs/internal/metrics"
)

type contextHandle uint64

// session pairs a Context with the C strings handed out on its behalf.
type session struct {
	ctx *fsapi.Context

	mutex      sync.Mutex
	items      map[fsapi.ListHandle]map[uint64]*C.char
	errMessage string
	errString  *C.char
	workingDir *C.char
	binaryDir  *C.char
}

var (
	sessionsMutex sync.Mutex
	sessions      = handle.NewArena[contextHandle, *session](handle.KindContext)
)

func openSession() contextHandle {
	settings, err := config.Load()
	var logger *logging.Logger
	if err != nil {
		settings, _ = config.LoadSettings("", trussfs.DefaultConfig, nil)
		logger = settings.NewLogger()
		logger.Warn("settings ignored", map[string]string{"error": err.Error()})
	} else {
		logger = settings.NewLogger()
	}

	s := &session{
		ctx: fsapi.New(fsapi.Options{
			Logger:   logger,
			Metrics:  metrics.Default,
			Settings: settings,
		}),
		items: make(map[fsapi.ListHandle]map[uint64]*C.char),
	}
	sessionsMutex.Lock()
	defer sessionsMutex.Unlock()
	return sessions.Insert(s)
}

func lookupSession(h C.uint64_t) *session {
	sessionsMutex.Lock()
	defer sessionsMutex.Unlock()
	s, _ := sessions.Get(contextHandle(h))
	return s
}

func closeSession(h C.uint64_t) {
	sessionsMutex.Lock()
	s, ok := sessions.Remove(contextHandle(h))
	sessionsMutex.Unlock()
	if !ok {
		return
	}
	s.ctx.Shutdown()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for list := range s.items {
		s.releaseItemsLocked(list)
	}
	freeString(&s.errString)
	freeString(&s.workingDir)
	freeString(&s.binaryDir)
	s.errMessage = ""
}

// listItem returns a C copy of item index of list, cached until the list is
// freed.
func (s *session) listItem(list fsapi.ListHandle, index uint64) *C.char {
	value, ok := s.ctx.ListGet(list, index)
	if !ok {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cached := s.items[list]
	if cached == nil {
		cached = make(map[uint64]*C.char)
		s.items[list] = cached
	}
	if str, ok := cached[index]; ok {
		return str
	}
	str := C.CString(value)
	cached[index] = str
	return str
}

func (s *session) freeList(list fsapi.ListHandle) {
	s.ctx.FreeList(list)
	s.mutex.Lock()
	s.releaseItemsLocked(list)
	s.mutex.Unlock()
}

func (s *session) releaseItemsLocked(list fsapi.ListHandle) {
	for _, str := range s.items[list] {
		C.free(unsafe.Pointer(str))
	}
	delete(s.items, list)
}

// lastError returns the pending message as a C string. The previous string
// stays valid until the message changes.
func (s *session) lastError() *C.char {
	message, ok := s.ctx.LastError()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !ok {
		freeString(&s.errString)
		s.errMessage = ""
		return nil
	}
	if s.errString == nil || message != s.errMessage {
		freeString(&s.errString)
		s.errString = C.CString(message)
		s.errMessage = message
	}
	return s.errString
}

func (s *session) clearError() {
	s.ctx.ClearError()
	s.mutex.Lock()
	freeString(&s.errString)
	s.errMessage = ""
	s.mutex.Unlock()
}

// dirString caches a directory query for the life of the session.
func (s *session) dirString(slot **C.char, query func() (string, bool)) *C.char {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if *slot != nil {
		return *slot
	}
	value, ok := query()
	if !ok {
		return nil
	}
	*slot = C.CString(value)
	return *slot
}

func freeString(slot **C.char) {
	if *slot != nil {
		C.free(unsafe.Pointer(*slot))
		*slot = nil
	}
}
