// Package handle implements generational arenas that hand out opaque 64-bit
// handles for heap-owned values.
//
// A handle packs a slot index with the slot's version at the time of
// insertion. Removing a value bumps the version, so a handle captured before
// the removal never resolves again, even after the slot is reused. Lookups on
// stale, forged, out-of-range or wrong-kind handles report absence; they never
// panic.
//
// Arenas are not safe for concurrent use. Owners that share an arena across
// goroutines must hold their own lock.
package handle

import (
	"fmt"
	"math"
)

// Handle is the raw 64-bit form of a handle, as it crosses the C boundary.
//
// Layout, high to low: 30-bit slot version, 2-bit kind tag, 32-bit slot index.
// The upper 32 bits taken together are the handle's generation.
type Handle uint64

// Invalid is never returned by a successful Insert.
const Invalid Handle = math.MaxUint64

// Kind tags a handle with the pool that issued it.
type Kind uint8

const (
	KindContext Kind = iota
	KindArchive
	KindList
	KindWatcher
)

const (
	kindBits   = 2
	kindMask   = 1<<kindBits - 1
	indexBits  = 32
	maxVersion = 1<<(32-kindBits) - 1
	maxIndex   = math.MaxUint32 - 1
)

func (k Kind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindArchive:
		return "archive"
	case KindList:
		return "list"
	case KindWatcher:
		return "watcher"
	default:
		return "unknown"
	}
}

func pack(version uint32, kind Kind, index uint32) Handle {
	generation := version<<kindBits | uint32(kind)&kindMask
	return Handle(uint64(generation)<<indexBits | uint64(index))
}

// Index returns the slot index encoded in h.
func (h Handle) Index() uint32 {
	return uint32(h)
}

// Generation returns the upper 32 bits of h: version and kind tag.
func (h Handle) Generation() uint32 {
	return uint32(h >> indexBits)
}

// Kind returns the pool tag encoded in h.
func (h Handle) Kind() Kind {
	return Kind(h.Generation() & kindMask)
}

func (h Handle) version() uint32 {
	return h.Generation() >> kindBits
}

func (h Handle) String() string {
	if h == Invalid {
		return "invalid"
	}
	return fmt.Sprintf("%s:%d@%d", h.Kind(), h.Index(), h.version())
}
