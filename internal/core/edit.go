package core

// edit.go is the incremental edit controller.
//
// Every mutation re-runs the same chunk path (validation core, hooks,
// schema) on just the affected rows against the current plan, merges the
// result into the live state, regroups errors and changes from the
// canonical arrays, and records a whole-table history entry.

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrRowOutOfRange is returned for a row index outside the table.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrInvalidPattern is returned for an empty or unusable search term.
	ErrInvalidPattern = errors.New("invalid search pattern")
)

// EditMode selects how EditRow merges the re-validated row.
type EditMode int

const (
	// EditReplace overwrites the row at the index.
	EditReplace EditMode = iota
	// EditAdd inserts the row at the index, shifting later rows down.
	EditAdd
)

// FieldAll targets every column in find/replace.
const FieldAll = "all"

// CellRef addresses one cell.
type CellRef struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
}

// Editor owns a table state and applies row-level mutations with history.
// Mutations are serialized by an internal lock.
type Editor struct {
	mu       sync.Mutex
	pipeline *Pipeline
	plan     *Plan
	state    TableState
	history  *History
}

// NewEditor wraps an initial state. historySize <= 0 uses DefaultHistorySize.
func NewEditor(p *Pipeline, plan *Plan, state TableState, historySize int) *Editor {
	state = state.Clone()
	regroup(&state)
	return &Editor{
		pipeline: p,
		plan:     plan,
		state:    state,
		history:  NewHistory(historySize),
	}
}

// State returns a copy of the current table state.
func (e *Editor) State() TableState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Len returns the current row count.
func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.Rows)
}

// History exposes the undo/redo stack.
func (e *Editor) History() *History {
	return e.history
}

func regroup(s *TableState) {
	s.GroupedErrors = GroupErrorsByRow(s.Errors)
	s.GroupedChanges = GroupChangesByRow(s.Changes)
}

// commit swaps in next and records the mutation. Caller holds e.mu.
func (e *Editor) commit(label string, next TableState) {
	regroup(&next)
	e.history.Push(label, e.state, next)
	e.state = next
}

// trackerFor seeds a tracker with every current row except those skipped,
// placing each at the index returned by indexOf.
func (e *Editor) trackerFor(indexOf func(int) int) *UniqueTracker {
	if !e.plan.HasUniquenessChecks {
		return nil
	}
	t := NewUniqueTracker()
	SeedTracker(t, e.state.Rows, e.plan, indexOf)
	return t
}

// EditRow re-validates row and merges it at index.
//
// EditReplace discards the old row's errors and changes. EditAdd inserts at
// index (0..Len) and shifts every later error and change down by one.
//
// Only the edited row is re-validated, so a duplicate is always reported on
// it, even when the row it collides with comes later in the table.
func (e *Editor) EditRow(row Row, index int, mode EditMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch mode {
	case EditReplace:
		return e.replaceLocked(row, index, fmt.Sprintf("Edit row %d", index+1))
	case EditAdd:
		return e.insertLocked(row, index, fmt.Sprintf("Add row %d", index+1))
	default:
		return fmt.Errorf("unknown edit mode %d", mode)
	}
}

func (e *Editor) replaceLocked(row Row, index int, label string) error {
	if index < 0 || index >= len(e.state.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}

	tracker := e.trackerFor(func(i int) int {
		if i == index {
			return -1
		}
		return i
	})
	chunk := e.pipeline.ValidateChunk([]Row{row}, index, e.plan, tracker)

	next := TableState{
		Rows:    cloneRows(e.state.Rows),
		Errors:  withoutRows(e.state.Errors, map[int]bool{index: true}),
		Changes: changesWithoutRows(e.state.Changes, map[int]bool{index: true}),
	}
	next.Rows[index] = chunk.Rows[0]
	next.Errors = append(next.Errors, chunk.Errors...)
	next.Changes = append(next.Changes, chunk.Changes...)

	e.commit(label, next)
	return nil
}

func (e *Editor) insertLocked(row Row, index int, label string) error {
	if index < 0 || index > len(e.state.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}

	shift := func(i int) int {
		if i >= index {
			return i + 1
		}
		return i
	}
	tracker := e.trackerFor(shift)
	chunk := e.pipeline.ValidateChunk([]Row{row}, index, e.plan, tracker)

	rows := make([]Row, 0, len(e.state.Rows)+1)
	rows = append(rows, cloneRows(e.state.Rows[:index])...)
	rows = append(rows, chunk.Rows[0])
	rows = append(rows, cloneRows(e.state.Rows[index:])...)

	next := TableState{Rows: rows}
	for _, er := range e.state.Errors {
		er.Row = shift(er.Row)
		next.Errors = append(next.Errors, er)
	}
	for _, c := range e.state.Changes {
		c.Row = shift(c.Row)
		next.Changes = append(next.Changes, c)
	}
	next.Errors = append(next.Errors, chunk.Errors...)
	next.Changes = append(next.Changes, chunk.Changes...)

	e.commit(label, next)
	return nil
}

// DuplicateRow inserts a copy of the row at index directly below it.
func (e *Editor) DuplicateRow(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.state.Rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, index)
	}
	return e.insertLocked(e.state.Rows[index].Clone(), index+1, fmt.Sprintf("Duplicate row %d", index+1))
}

// DeleteRows removes rows and compacts the row index of every remaining
// error and change.
func (e *Editor) DeleteRows(indices []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(indices) == 0 {
		return nil
	}

	doomed := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(e.state.Rows) {
			return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
		}
		doomed[i] = true
	}

	indexMap := make(map[int]int, len(e.state.Rows))
	next := TableState{Rows: make([]Row, 0, len(e.state.Rows)-len(doomed))}
	for i, r := range e.state.Rows {
		if doomed[i] {
			continue
		}
		indexMap[i] = len(next.Rows)
		next.Rows = append(next.Rows, r.Clone())
	}
	for _, er := range e.state.Errors {
		if n, ok := indexMap[er.Row]; ok {
			er.Row = n
			next.Errors = append(next.Errors, er)
		}
	}
	for _, c := range e.state.Changes {
		if n, ok := indexMap[c.Row]; ok {
			c.Row = n
			next.Changes = append(next.Changes, c)
		}
	}

	sorted := make([]int, 0, len(doomed))
	for i := range doomed {
		sorted = append(sorted, i)
	}
	sort.Ints(sorted)
	labels := make([]string, len(sorted))
	for i, r := range sorted {
		labels[i] = fmt.Sprint(r + 1)
	}

	e.commit("Delete rows "+strings.Join(labels, ", "), next)
	return nil
}

// Undo restores the state before the last mutation and returns its label.
func (e *Editor) Undo() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, label, err := e.history.Undo()
	if err != nil {
		return "", err
	}
	e.state = st
	return label, nil
}

// Redo re-applies the last undone mutation and returns its label.
func (e *Editor) Redo() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, label, err := e.history.Redo()
	if err != nil {
		return "", err
	}
	e.state = st
	return label, nil
}

// searchPattern compiles a literal, case-insensitive search. exact anchors
// it to the whole value.
func searchPattern(find string, exact bool) (*regexp.Regexp, error) {
	if find == "" {
		return nil, ErrInvalidPattern
	}
	expr := regexp.QuoteMeta(find)
	if exact {
		expr = "^" + expr + "$"
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return re, nil
}

func cellKeys(row Row, field string) []string {
	if field != FieldAll {
		return []string{field}
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindMatches lists every cell whose value matches find.
func (e *Editor) FindMatches(find, field string, exact bool) ([]CellRef, error) {
	re, err := searchPattern(find, exact)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var out []CellRef
	for i, row := range e.state.Rows {
		for _, k := range cellKeys(row, field) {
			v, ok := row[k]
			if !ok || v == nil {
				continue
			}
			if re.MatchString(toText(v)) {
				out = append(out, CellRef{Row: i, Field: k})
			}
		}
	}
	return out, nil
}

// FindReplace replaces find with replace in matching cells, re-validates
// each contiguous run of affected rows and records one history entry.
// It returns the number of rows changed; zero leaves state and history alone.
func (e *Editor) FindReplace(find, field, replace string, exact bool) (int, error) {
	re, err := searchPattern(find, exact)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	edited := make(map[int]Row)
	for i, row := range e.state.Rows {
		var out Row
		for _, k := range cellKeys(row, field) {
			v, ok := row[k]
			if !ok || v == nil {
				continue
			}
			s := toText(v)
			if !re.MatchString(s) {
				continue
			}
			replaced := re.ReplaceAllLiteralString(s, replace)
			if replaced == s {
				continue
			}
			if out == nil {
				out = row.Clone()
			}
			out[k] = replaced
		}
		if out != nil {
			edited[i] = out
		}
	}
	if len(edited) == 0 {
		return 0, nil
	}

	affected := make([]int, 0, len(edited))
	for i := range edited {
		affected = append(affected, i)
	}
	sort.Ints(affected)
	skip := make(map[int]bool, len(affected))
	for _, i := range affected {
		skip[i] = true
	}

	tracker := e.trackerFor(func(i int) int {
		if skip[i] {
			return -1
		}
		return i
	})

	next := TableState{
		Rows:    cloneRows(e.state.Rows),
		Errors:  withoutRows(e.state.Errors, skip),
		Changes: changesWithoutRows(e.state.Changes, skip),
	}
	for _, run := range contiguousRuns(affected) {
		rows := make([]Row, len(run))
		for j, idx := range run {
			rows[j] = edited[idx]
		}
		chunk := e.pipeline.ValidateChunk(rows, run[0], e.plan, tracker)
		for j := range run {
			next.Rows[chunk.StartRow+j] = chunk.Rows[j]
		}
		next.Errors = append(next.Errors, chunk.Errors...)
		next.Changes = append(next.Changes, chunk.Changes...)
	}

	e.commit(fmt.Sprintf("Replace %q with %q", find, replace), next)
	return len(affected), nil
}

// contiguousRuns splits ascending indices into runs of consecutive values.
func contiguousRuns(sorted []int) [][]int {
	var runs [][]int
	var run []int
	for i, v := range sorted {
		if i > 0 && v != sorted[i-1]+1 {
			runs = append(runs, run)
			run = nil
		}
		run = append(run, v)
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

func withoutRows(errs []ValidationError, skip map[int]bool) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		if !skip[e.Row] {
			out = append(out, e)
		}
	}
	return out
}

func changesWithoutRows(changes []CleaningChange, skip map[int]bool) []CleaningChange {
	out := make([]CleaningChange, 0, len(changes))
	for _, c := range changes {
		if !skip[c.Row] {
			out = append(out, c)
		}
	}
	return out
}
