package core

import (
	"errors"
	"sync"
)

// DefaultHistorySize is the number of undoable mutations kept.
const DefaultHistorySize = 100

var (
	// ErrNothingToUndo is returned by Undo on an empty undo stack.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when no undone entry remains.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// HistoryEntry is a whole-table snapshot pair around one mutation.
type HistoryEntry struct {
	Label string
	Prev  TableState
	Next  TableState
}

// History is a bounded undo/redo stack of table snapshots.
// Pushing after an undo discards the redo tail; pushing past capacity
// evicts the oldest entry.
type History struct {
	mu       sync.Mutex
	entries  []HistoryEntry
	pos      int // number of applied entries; entries[pos:] are redoable
	capacity int
}

// NewHistory creates a history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{capacity: capacity}
}

// Push records a mutation. Snapshots are copied.
func (h *History) Push(label string, prev, next TableState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.pos], HistoryEntry{
		Label: label,
		Prev:  prev.Clone(),
		Next:  next.Clone(),
	})
	if len(h.entries) > h.capacity {
		drop := len(h.entries) - h.capacity
		h.entries = append([]HistoryEntry(nil), h.entries[drop:]...)
	}
	h.pos = len(h.entries)
}

// Undo steps back one entry and returns the state to restore.
func (h *History) Undo() (TableState, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos == 0 {
		return TableState{}, "", ErrNothingToUndo
	}
	h.pos--
	e := h.entries[h.pos]
	return e.Prev.Clone(), e.Label, nil
}

// Redo re-applies the next undone entry and returns the state to restore.
func (h *History) Redo() (TableState, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos >= len(h.entries) {
		return TableState{}, "", ErrNothingToRedo
	}
	e := h.entries[h.pos]
	h.pos++
	return e.Next.Clone(), e.Label, nil
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos < len(h.entries)
}

// Len returns the number of stored entries, including redoable ones.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Labels returns entry labels oldest first, with the index of the next undo
// (-1 when nothing can be undone).
func (h *History) Labels() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Label
	}
	return out, h.pos - 1
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.pos = 0
}
