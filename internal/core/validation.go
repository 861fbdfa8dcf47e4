package core

// validation.go is the per-field validation core.
//
// For every row and every mapped field the steps run in a fixed order:
//  1. trim
//  2. case folding
//  3. normalization (dates, phones, countries, employee IDs)
//  4. compiled validators (option set, regex)
//  5. uniqueness against a tracker that may span chunks
//
// Row-level problems never abort the run; they are collected as
// ValidationError values with global row indices.

import (
	"fmt"
	"reflect"
	"strings"
)

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row+1, e.Field, e.Message)
}

// UniqueTracker records, per field, the first global row index at which each
// normalized value was seen. Share one tracker across every chunk of a run;
// chunks must then be fed in row order.
type UniqueTracker struct {
	seen map[Field]map[string]int
}

// NewUniqueTracker creates an empty tracker.
func NewUniqueTracker() *UniqueTracker {
	return &UniqueTracker{seen: make(map[Field]map[string]int)}
}

// Reset forgets everything seen so far.
func (t *UniqueTracker) Reset() {
	t.seen = make(map[Field]map[string]int)
}

// observe records value at row and returns the first row holding it.
// The boolean is false for the first occurrence and for a row meeting itself.
func (t *UniqueTracker) observe(field Field, key string, row int) (int, bool) {
	byValue, ok := t.seen[field]
	if !ok {
		byValue = make(map[string]int)
		t.seen[field] = byValue
	}
	first, exists := byValue[key]
	if !exists {
		byValue[key] = row
		return row, false
	}
	return first, first != row
}

// Len returns the number of tracked values for field.
func (t *UniqueTracker) Len(field Field) int {
	return len(t.seen[field])
}

// uniqueKey normalizes a value per the policy. ok is false when the value
// should not take part in duplicate detection.
func uniqueKey(v any, policy UniquePolicy) (string, bool) {
	var s string
	if v != nil {
		s = strings.TrimSpace(toText(v))
	}
	if policy.IgnoreNulls && s == "" {
		return "", false
	}
	if policy.IgnoreCase {
		s = strings.ToLower(s)
	}
	return s, true
}

// SeedTracker loads cleaned rows into a tracker so a partial re-validation
// sees the rest of the table. indexOf maps a row's position in rows to its
// global index; rows mapped to a negative index are skipped.
func SeedTracker(t *UniqueTracker, rows []Row, plan *Plan, indexOf func(int) int) {
	for i, row := range rows {
		g := indexOf(i)
		if g < 0 {
			continue
		}
		for _, e := range plan.Entries {
			if e.Rule.Unique == nil {
				continue
			}
			key, ok := uniqueKey(row[string(e.Target)], *e.Rule.Unique)
			if !ok {
				continue
			}
			t.observe(e.Target, key, g)
		}
	}
}

// lookup reads the value feeding an entry: the source header first, then the
// target field so already-cleaned rows can be validated again.
func lookup(row Row, e PlanEntry) any {
	if v, ok := row[e.Header]; ok {
		return v
	}
	return row[string(e.Target)]
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Run applies trim, case and normalization to every mapped field, runs the
// compiled validators and enforces uniqueness. Error and change indices are
// global: rowOffset + local index. A nil tracker gives the call its own.
//
// Input rows are not modified; each output row is a new value keyed by
// target field, carrying unmapped source columns unchanged.
func Run(rows []Row, plan *Plan, tracker *UniqueTracker, rowOffset int) CleaningResult {
	if tracker == nil {
		tracker = NewUniqueTracker()
	}

	result := CleaningResult{Rows: make([]Row, len(rows))}

	for i, raw := range rows {
		g := rowOffset + i
		out := raw.Clone()
		if out == nil {
			out = make(Row)
		}
		// Source keys go first; a header may share a name with another target.
		for _, e := range plan.Entries {
			delete(out, e.Header)
		}

		for _, e := range plan.Entries {
			original := lookup(raw, e)

			var kinds []ChangeKind
			v := TrimValue(original, e.Rule.Trim)
			if !sameValue(v, original) {
				kinds = append(kinds, ChangeTrimmed)
			}
			next := NormalizeCase(v, e.Rule.Case)
			if !sameValue(next, v) {
				kinds = append(kinds, ChangeCaseChanged)
			}
			v = next
			next = NormalizeBasic(v, e.Rule)
			if !sameValue(next, v) {
				kinds = append(kinds, ChangeNormalized)
			}
			v = next

			out[string(e.Target)] = v

			if len(kinds) > 0 && !sameValue(original, v) {
				result.Changes = append(result.Changes, CleaningChange{
					Row:           g,
					Field:         e.Target,
					OriginalValue: original,
					CleanedValue:  v,
					ChangeType:    kinds,
					Description:   describeChange(e.Target, kinds),
				})
			}

			for _, check := range e.validators {
				if msg, ok := check(v); !ok {
					result.Errors = append(result.Errors, ValidationError{
						Row: g, Field: e.Target, Message: msg, Value: v,
					})
				}
			}

			if e.Rule.Unique != nil {
				key, ok := uniqueKey(v, *e.Rule.Unique)
				if !ok {
					continue
				}
				if first, dup := tracker.observe(e.Target, key, g); dup {
					result.Errors = append(result.Errors, ValidationError{
						Row:     g,
						Field:   e.Target,
						Message: fmt.Sprintf("Duplicate value found in row %d", first+1),
						Value:   v,
					})
				}
			}
		}

		result.Rows[i] = out
	}

	return result
}

func describeChange(f Field, kinds []ChangeKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = changeKindLabel(k)
	}
	return fmt.Sprintf("Cleaned value for %s (%s)", f, strings.Join(names, ", "))
}

func changeKindLabel(k ChangeKind) string {
	switch k {
	case ChangeTrimmed:
		return "trimmed"
	case ChangeCaseChanged:
		return "case changed"
	case ChangeNormalized:
		return "normalized"
	case ChangeCustomHook:
		return "column hook"
	case ChangeRowHook:
		return "row hook"
	}
	return string(k)
}
