// Package strlist holds ordered lists of strings that can be handed across
// the C boundary as NUL-terminated byte strings.
package strlist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmbeddedNUL is returned for values that cannot be represented as a C
// string.
var ErrEmbeddedNUL = errors.New("string contains an embedded NUL byte")

// List is an insertion-ordered sequence of NUL-free strings.
type List struct {
	items []string
}

func New() *List {
	return &List{}
}

// FromStrings builds a list, failing on the first value with an embedded NUL.
func FromStrings(values []string) (*List, error) {
	list := &List{items: make([]string, 0, len(values))}
	for _, value := range values {
		if err := list.Push(value); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Push appends value. The list is left unchanged if value cannot be
// represented.
func (l *List) Push(value string) error {
	if err := Validate(value); err != nil {
		return err
	}
	l.items = append(l.items, value)
	return nil
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Get returns the item at index, or false when index is out of range.
func (l *List) Get(index uint64) (string, bool) {
	if l == nil || index >= uint64(len(l.items)) {
		return "", false
	}
	return l.items[index], true
}

// Items returns a copy of the list contents.
func (l *List) Items() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

func Validate(value string) error {
	if index := strings.IndexByte(value, 0); index >= 0 {
		return fmt.Errorf("%w at offset %d", ErrEmbeddedNUL, index)
	}
	return nil
}
