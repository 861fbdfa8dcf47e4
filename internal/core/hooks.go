package core

import (
	"fmt"
	"sort"
)

// DefaultChangeCap bounds the changes recorded per chunk by the hook layer.
// Mutations beyond the cap still apply; they are just not logged.
const DefaultChangeCap = 5000

// ApplyHooks runs column hooks for mapped fields declaring one, then every
// row hook in the plan. rows must be cleaned rows (keyed by target field).
// Indices in the result are rowOffset + local index.
func ApplyHooks(rows []Row, plan *Plan, cleanUp bool, rowOffset, changeCap int) CleaningResult {
	if changeCap <= 0 {
		changeCap = DefaultChangeCap
	}
	opts := plan.Hooks
	opts.CleanUp = cleanUp

	result := CleaningResult{Rows: make([]Row, len(rows))}
	record := func(c CleaningChange) {
		if len(result.Changes) < changeCap {
			result.Changes = append(result.Changes, c)
		}
	}

	for i, row := range rows {
		g := rowOffset + i
		out := row.Clone()
		if out == nil {
			out = make(Row)
		}

		for _, e := range plan.Entries {
			if e.Rule.ColumnHookID == "" {
				continue
			}
			hook, ok := GetColumnHook(e.Rule.ColumnHookID)
			if !ok {
				continue
			}
			key := string(e.Target)
			before := out[key]
			after := hook(before, ColumnHookContext{Field: e.Target, Row: out})
			if sameValue(before, after) {
				continue
			}
			out[key] = after
			record(CleaningChange{
				Row:           g,
				Field:         e.Target,
				OriginalValue: before,
				CleanedValue:  after,
				ChangeType:    []ChangeKind{ChangeCustomHook},
				Description:   fmt.Sprintf("Applied %s to %s", e.Rule.ColumnHookID, e.Target),
			})
		}

		for _, id := range plan.RowHooks {
			hook, ok := GetRowHook(id)
			if !ok {
				continue
			}
			next, errs := hook(out, opts)
			if next == nil {
				next = out
			}
			for _, f := range changedKeys(out, next) {
				record(CleaningChange{
					Row:           g,
					Field:         Field(f),
					OriginalValue: out[f],
					CleanedValue:  next[f],
					ChangeType:    []ChangeKind{ChangeRowHook},
					Description:   fmt.Sprintf("Updated %s by row rule %s", f, id),
				})
			}
			for _, he := range errs {
				result.Errors = append(result.Errors, ValidationError{
					Row:     g,
					Field:   he.Field,
					Message: he.Message,
					Value:   next[string(he.Field)],
				})
			}
			out = next
		}

		result.Rows[i] = out
	}

	return result
}

// changedKeys lists keys whose value differs between a and b, sorted by
// catalog order with non-catalog keys last.
func changedKeys(a, b Row) []string {
	var keys []string
	for k, v := range b {
		if old, ok := a[k]; !ok || !sameValue(old, v) {
			keys = append(keys, k)
		}
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := fieldOrder[Field(keys[i])]
		oj, jok := fieldOrder[Field(keys[j])]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
