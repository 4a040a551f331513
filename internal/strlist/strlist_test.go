package strlist

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestListPushAndGet(t *testing.T) {
	list := New()
	for _, value := range []string{"a", "", "c"} {
		if err := list.Push(value); err != nil {
			t.Fatalf("push %q: %v", value, err)
		}
	}
	if list.Len() != 3 {
		t.Fatalf("expected len 3, got %d", list.Len())
	}
	if value, ok := list.Get(2); !ok || value != "c" {
		t.Fatalf("expected c, got %q (ok=%v)", value, ok)
	}
	if _, ok := list.Get(3); ok {
		t.Fatal("expected out-of-range get to fail")
	}
	if diff := cmp.Diff([]string{"a", "", "c"}, list.Items()); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}

func TestListRejectsEmbeddedNUL(t *testing.T) {
	list := New()
	err := list.Push("bad\x00value")
	if !errors.Is(err, ErrEmbeddedNUL) {
		t.Fatalf("expected ErrEmbeddedNUL, got %v", err)
	}
	if list.Len() != 0 {
		t.Fatalf("expected list unchanged, got len %d", list.Len())
	}
}

func TestFromStringsFailsWhole(t *testing.T) {
	if _, err := FromStrings([]string{"ok", "x\x00"}); !errors.Is(err, ErrEmbeddedNUL) {
		t.Fatalf("expected ErrEmbeddedNUL, got %v", err)
	}
	list, err := FromStrings([]string{"one", "two"})
	if err != nil {
		t.Fatalf("from strings: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("expected len 2, got %d", list.Len())
	}
}

func TestItemsIsACopy(t *testing.T) {
	list, _ := FromStrings([]string{"keep"})
	items := list.Items()
	items[0] = "changed"
	if value, _ := list.Get(0); value != "keep" {
		t.Fatalf("list mutated through Items: %q", value)
	}
}
