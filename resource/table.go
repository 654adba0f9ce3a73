package resource

import (
	"errors"
	"fmt"
	"sync"
)

var ErrClosed = errors.New("reference table closed")

// Table is a growable, index-addressed store of host values.
type Table struct {
	entries   []any
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates a table holding only the reserved slot 0 (Undefined).
func NewTable() *Table {
	entries := make([]any, 1, 8)
	entries[0] = Undefined
	return &Table{entries: entries}
}

// Grow appends delta empty slots and returns the index of the first one.
func (t *Table) Grow(delta uint32) Index {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}
	offset := Index(len(t.entries))
	t.entries = append(t.entries, make([]any, delta)...)
	t.mu.Unlock()

	t.notify(Event{Type: EventGrown, Index: offset, Delta: delta})
	return offset
}

// Set stores v at idx. The slot must already exist.
func (t *Table) Set(idx Index, v any) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if int(idx) >= len(t.entries) {
		n := len(t.entries)
		t.mu.Unlock()
		return fmt.Errorf("reference table index %d out of range (length %d)", idx, n)
	}
	t.entries[idx] = v
	t.mu.Unlock()

	t.notify(Event{Type: EventSet, Index: idx, Value: v})
	return nil
}

// Get retrieves the value at idx.
func (t *Table) Get(idx Index) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if int(idx) >= len(t.entries) {
		return nil, false
	}
	return t.entries[idx], true
}

// Len returns the number of slots, including the reserved one.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Subscribe adds an observer for table events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops all values and rejects further writes.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.entries = nil
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnTableEvent(e)
	}
}
