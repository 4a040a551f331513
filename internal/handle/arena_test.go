package handle

import (
	"math/rand"
	"testing"
)

type testKey uint64

type otherKey uint64

func TestArenaInsertGetRemove(t *testing.T) {
	arena := NewArena[testKey, string](KindList)

	key := arena.Insert("alpha")
	if Handle(key) == Invalid {
		t.Fatal("insert returned invalid handle")
	}
	value, ok := arena.Get(key)
	if !ok || value != "alpha" {
		t.Fatalf("expected alpha, got %q (ok=%v)", value, ok)
	}
	if arena.Len() != 1 {
		t.Fatalf("expected len 1, got %d", arena.Len())
	}

	removed, ok := arena.Remove(key)
	if !ok || removed != "alpha" {
		t.Fatalf("expected removed alpha, got %q (ok=%v)", removed, ok)
	}
	if _, ok := arena.Get(key); ok {
		t.Fatal("expected handle to be invalid after remove")
	}
	if arena.Len() != 0 {
		t.Fatalf("expected len 0, got %d", arena.Len())
	}
}

func TestArenaRemoveTwiceReportsAbsence(t *testing.T) {
	arena := NewArena[testKey, int](KindArchive)
	key := arena.Insert(7)
	if _, ok := arena.Remove(key); !ok {
		t.Fatal("expected first remove to succeed")
	}
	if _, ok := arena.Remove(key); ok {
		t.Fatal("expected second remove to report absence")
	}
}

func TestArenaStaleHandleDoesNotAliasReusedSlot(t *testing.T) {
	arena := NewArena[testKey, string](KindWatcher)

	stale := arena.Insert("old")
	arena.Remove(stale)
	fresh := arena.Insert("new")

	if Handle(fresh).Index() != Handle(stale).Index() {
		t.Fatalf("expected slot reuse, got index %d and %d", Handle(stale).Index(), Handle(fresh).Index())
	}
	if fresh == stale {
		t.Fatal("reused slot returned the same handle")
	}
	if _, ok := arena.Get(stale); ok {
		t.Fatal("stale handle resolved after slot reuse")
	}
	if _, ok := arena.Remove(stale); ok {
		t.Fatal("stale handle removed the new tenant")
	}
	value, ok := arena.Get(fresh)
	if !ok || value != "new" {
		t.Fatalf("expected new, got %q (ok=%v)", value, ok)
	}
}

func TestArenaRejectsBogusHandles(t *testing.T) {
	arena := NewArena[testKey, string](KindList)
	key := arena.Insert("value")
	raw := Handle(key)

	cases := map[string]testKey{
		"invalid":      testKey(Invalid),
		"zero":         0,
		"out of range": testKey(pack(raw.version(), KindList, 99)),
		"wrong kind":   testKey(pack(raw.version(), KindArchive, raw.Index())),
		"vacant":       testKey(pack(raw.version()+1, KindList, raw.Index())),
		"future":       testKey(pack(raw.version()+2, KindList, raw.Index())),
	}
	for name, candidate := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok := arena.Get(candidate); ok {
				t.Fatalf("expected %v to be rejected", Handle(candidate))
			}
			if arena.Contains(candidate) {
				t.Fatalf("expected %v to be absent", Handle(candidate))
			}
		})
	}
}

func TestArenaKindsAreIndependent(t *testing.T) {
	archives := NewArena[testKey, string](KindArchive)
	lists := NewArena[otherKey, string](KindList)

	archive := archives.Insert("zip")
	list := lists.Insert("names")

	if Handle(archive).Index() != Handle(list).Index() {
		t.Fatal("expected both arenas to start at slot 0")
	}
	if _, ok := lists.Get(otherKey(archive)); ok {
		t.Fatal("list arena accepted an archive handle")
	}
	if _, ok := archives.Get(testKey(list)); ok {
		t.Fatal("archive arena accepted a list handle")
	}
}

func TestArenaRetiresExhaustedSlot(t *testing.T) {
	arena := NewArena[testKey, int](KindList)
	key := arena.Insert(1)
	arena.slots[Handle(key).Index()].version = maxVersion
	last := testKey(pack(maxVersion, KindList, Handle(key).Index()))

	if _, ok := arena.Remove(last); !ok {
		t.Fatal("expected remove at max version to succeed")
	}
	next := arena.Insert(2)
	if Handle(next).Index() == Handle(last).Index() {
		t.Fatal("exhausted slot was reused")
	}
	if Handle(next) == Invalid {
		t.Fatal("insert returned invalid handle")
	}
}

func TestArenaDrainVisitsEveryLiveValue(t *testing.T) {
	arena := NewArena[testKey, int](KindWatcher)
	first := arena.Insert(1)
	arena.Insert(2)
	arena.Insert(3)
	arena.Remove(first)

	var seen []int
	arena.Drain(func(_ testKey, value int) {
		seen = append(seen, value)
	})
	if len(seen) != 2 || seen[0] != 2 || seen[1] != 3 {
		t.Fatalf("expected [2 3], got %v", seen)
	}
	if arena.Len() != 0 {
		t.Fatalf("expected empty arena after drain, got %d", arena.Len())
	}
}

func TestArenaRandomizedLifecycle(t *testing.T) {
	arena := NewArena[testKey, int](KindList)
	rng := rand.New(rand.NewSource(42))
	live := map[testKey]int{}
	var dead []testKey

	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			key := arena.Insert(step)
			if got, ok := arena.Get(key); !ok || got != step {
				t.Fatalf("step %d: fresh handle did not resolve", step)
			}
			live[key] = step
			continue
		}
		for key, want := range live {
			got, ok := arena.Remove(key)
			if !ok || got != want {
				t.Fatalf("step %d: remove returned %d (ok=%v), want %d", step, got, ok, want)
			}
			delete(live, key)
			dead = append(dead, key)
			break
		}
	}

	for _, key := range dead {
		if arena.Contains(key) {
			t.Fatalf("removed handle %v still resolves", Handle(key))
		}
	}
	for key, want := range live {
		if got, ok := arena.Get(key); !ok || got != want {
			t.Fatalf("live handle %v returned %d (ok=%v), want %d", Handle(key), got, ok, want)
		}
	}
	if arena.Len() != len(live) {
		t.Fatalf("expected len %d, got %d", len(live), arena.Len())
	}
}

func TestHandleString(t *testing.T) {
	if Invalid.String() != "invalid" {
		t.Fatalf("unexpected invalid string %q", Invalid.String())
	}
	if got := pack(3, KindArchive, 5).String(); got != "archive:5@3" {
		t.Fatalf("unexpected handle string %q", got)
	}
}
