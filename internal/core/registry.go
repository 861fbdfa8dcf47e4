package core

import (
	"fmt"
	"sort"
	"sync"
)

// Built-in hook ids.
const (
	HookStripSpaces    = "stripSpaces"
	HookNormalizePhone = "normalizePhone"
	HookEntryInit      = "onEntryInit"
)

// ColumnHookContext tells a column hook where its value lives.
type ColumnHookContext struct {
	Field Field
	Row   Row
}

// ColumnHook rewrites a single cell value.
type ColumnHook func(value any, ctx ColumnHookContext) any

// HookOptions carries run-level settings into row hooks.
type HookOptions struct {
	// CleanUp allows hooks to rewrite values; when false they only report.
	CleanUp             bool
	AllowedEmailDomains []string
}

// HookError is a row-local problem; the caller assigns the global row index.
type HookError struct {
	Field   Field
	Message string
}

// RowHook applies whole-row business logic. It must not mutate row in place.
type RowHook func(row Row, opts HookOptions) (Row, []HookError)

var (
	columnHooks = make(map[string]ColumnHook)
	rowHooks    = make(map[string]RowHook)
	hooksMu     sync.RWMutex
)

func init() {
	RegisterColumnHook(HookStripSpaces, func(v any, _ ColumnHookContext) any {
		if s, ok := v.(string); ok {
			return StripSpaces(s)
		}
		return v
	})
	RegisterColumnHook(HookNormalizePhone, func(v any, _ ColumnHookContext) any {
		if s, ok := v.(string); ok {
			return StripPhone(s)
		}
		return v
	})
	RegisterRowHook(HookEntryInit, EntryInitHook)
}

// RegisterColumnHook adds a column hook to the registry.
// Panics if a hook with the same id is already registered.
func RegisterColumnHook(id string, fn ColumnHook) {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	if _, exists := columnHooks[id]; exists {
		panic(fmt.Sprintf("column hook already registered: %s", id))
	}
	columnHooks[id] = fn
}

// RegisterRowHook adds a row hook to the registry.
// Panics if a hook with the same id is already registered.
func RegisterRowHook(id string, fn RowHook) {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	if _, exists := rowHooks[id]; exists {
		panic(fmt.Sprintf("row hook already registered: %s", id))
	}
	rowHooks[id] = fn
}

// GetColumnHook returns a column hook by id.
func GetColumnHook(id string) (ColumnHook, bool) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()

	fn, ok := columnHooks[id]
	return fn, ok
}

// GetRowHook returns a row hook by id.
func GetRowHook(id string) (RowHook, bool) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()

	fn, ok := rowHooks[id]
	return fn, ok
}

// HookIDs returns the registered column and row hook ids, sorted.
func HookIDs() (column, row []string) {
	hooksMu.RLock()
	defer hooksMu.RUnlock()

	for id := range columnHooks {
		column = append(column, id)
	}
	for id := range rowHooks {
		row = append(row, id)
	}
	sort.Strings(column)
	sort.Strings(row)
	return column, row
}

// unregisterHook removes a hook of either kind. Test helper.
func unregisterHook(id string) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	delete(columnHooks, id)
	delete(rowHooks, id)
}
