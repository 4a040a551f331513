package handle

const noFree = ^uint32(0)

type slot[V any] struct {
	// odd while occupied, even while vacant
	version  uint32
	nextFree uint32
	value    V
}

// Arena owns values of type V and addresses them through handles of type K.
// K is normally a named uint64 type so that handles issued by different
// arenas cannot be mixed up at compile time.
type Arena[K ~uint64, V any] struct {
	kind     Kind
	slots    []slot[V]
	freeHead uint32
	live     int
}

// NewArena returns an empty arena whose handles carry the given kind tag.
func NewArena[K ~uint64, V any](kind Kind) *Arena[K, V] {
	return &Arena[K, V]{
		kind:     kind & kindMask,
		freeHead: noFree,
	}
}

// Kind reports the tag stamped on every handle the arena issues.
func (a *Arena[K, V]) Kind() Kind {
	return a.kind
}

// Len returns the number of live values.
func (a *Arena[K, V]) Len() int {
	if a == nil {
		return 0
	}
	return a.live
}

// Insert stores value and returns a handle that resolves to it until Remove.
// Vacant slots are reused first; each reuse carries a newer version than any
// handle previously issued for the slot.
func (a *Arena[K, V]) Insert(value V) K {
	var index uint32
	if a.freeHead != noFree {
		index = a.freeHead
		a.freeHead = a.slots[index].nextFree
	} else {
		if uint64(len(a.slots)) > maxIndex {
			// Unreachable before the process runs out of memory.
			panic("handle: arena index space exhausted")
		}
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot[V]{})
	}

	s := &a.slots[index]
	s.version++
	s.nextFree = noFree
	s.value = value
	a.live++
	return K(pack(s.version, a.kind, index))
}

// Get returns the value addressed by key. It reports false for handles that
// are stale, out of range, issued by another arena kind, or Invalid.
func (a *Arena[K, V]) Get(key K) (V, bool) {
	var zero V
	s := a.lookup(Handle(key))
	if s == nil {
		return zero, false
	}
	return s.value, true
}

// Contains reports whether key currently resolves.
func (a *Arena[K, V]) Contains(key K) bool {
	return a.lookup(Handle(key)) != nil
}

// Remove vacates the slot addressed by key and hands the value back so the
// caller can release it. Removing a handle that does not resolve is a no-op
// that reports false.
func (a *Arena[K, V]) Remove(key K) (V, bool) {
	var zero V
	h := Handle(key)
	s := a.lookup(h)
	if s == nil {
		return zero, false
	}
	value := s.value
	s.value = zero
	s.version++
	a.live--

	// A slot that has used up its version space is retired instead of
	// relinked, so no (version, index) pair is ever issued twice.
	if s.version < maxVersion {
		s.nextFree = a.freeHead
		a.freeHead = h.Index()
	}
	return value, true
}

// Each calls fn for every live value in slot order. fn must not insert into
// or remove from the arena.
func (a *Arena[K, V]) Each(fn func(K, V)) {
	if a == nil || fn == nil {
		return
	}
	for index := range a.slots {
		s := &a.slots[index]
		if s.version%2 == 1 {
			fn(K(pack(s.version, a.kind, uint32(index))), s.value)
		}
	}
}

// Drain removes every live value in slot order, passing each to fn before
// the arena forgets it.
func (a *Arena[K, V]) Drain(fn func(K, V)) {
	if a == nil {
		return
	}
	for index := range a.slots {
		s := &a.slots[index]
		if s.version%2 == 0 {
			continue
		}
		key := K(pack(s.version, a.kind, uint32(index)))
		value, _ := a.Remove(key)
		if fn != nil {
			fn(key, value)
		}
	}
}

func (a *Arena[K, V]) lookup(h Handle) *slot[V] {
	if a == nil || h == Invalid {
		return nil
	}
	if h.Kind() != a.kind {
		return nil
	}
	index := h.Index()
	if uint64(index) >= uint64(len(a.slots)) {
		return nil
	}
	s := &a.slots[index]
	version := h.version()
	if version%2 == 0 || s.version != version {
		return nil
	}
	return s
}
