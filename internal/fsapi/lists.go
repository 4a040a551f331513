package fsapi

import (
	"fmt"

	"trussfs/internal/handle"
	"trussfs/internal/strlist"
)

// NewList creates an empty list for the caller to fill with ListPush.
func (c *Context) NewList() ListHandle {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.open("list_new") {
		return InvalidList
	}
	c.metrics.HandleAllocated(handle.KindList.String())
	return c.lists.Insert(strlist.New())
}

// FreeList releases h. It reports false, without recording an error, when h
// does not resolve.
func (c *Context) FreeList(h ListHandle) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.lists.Remove(h); !ok {
		return false
	}
	c.metrics.HandleFreed(handle.KindList.String())
	return true
}

// ListLen returns the number of items in h, or 0 if h does not resolve.
func (c *Context) ListLen(h ListHandle) uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	list, ok := c.list("list_length", h)
	if !ok {
		return 0
	}
	return uint64(list.Len())
}

// ListGet returns item index of h.
func (c *Context) ListGet(h ListHandle, index uint64) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	list, ok := c.list("list_get", h)
	if !ok {
		return "", false
	}
	value, ok := list.Get(index)
	if !ok {
		c.fail("list_get", wrapKind(ErrNotFound, fmt.Errorf("index %d out of range for %d items", index, list.Len())))
		return "", false
	}
	return value, true
}

// ListPush appends value to h. Values containing a NUL byte are rejected.
func (c *Context) ListPush(h ListHandle, value string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	list, ok := c.list("list_push", h)
	if !ok {
		return false
	}
	if err := list.Push(value); err != nil {
		c.fail("list_push", err)
		return false
	}
	return true
}

// ListItems returns a copy of every item in h.
func (c *Context) ListItems(h ListHandle) ([]string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	list, ok := c.list("list_items", h)
	if !ok {
		return nil, false
	}
	return list.Items(), true
}

func (c *Context) list(operation string, h ListHandle) (*strlist.List, bool) {
	list, ok := c.lists.Get(h)
	if !ok {
		c.fail(operation, invalidHandle(h))
	}
	return list, ok
}
