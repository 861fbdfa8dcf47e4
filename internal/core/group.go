package core

import (
	"sort"
	"strings"
)

// groupEntry is the common shape of errors and changes for grouping.
type groupEntry struct {
	row     int
	field   Field
	message string
	value   any
}

func group(entries []groupEntry) []GroupedRow {
	if len(entries) == 0 {
		return []GroupedRow{}
	}

	rows := make(map[int]*GroupedRow)
	fieldIdx := make(map[int]map[Field]int)
	var order []int

	for _, e := range entries {
		gr, ok := rows[e.row]
		if !ok {
			gr = &GroupedRow{Row: e.row}
			rows[e.row] = gr
			fieldIdx[e.row] = make(map[Field]int)
			order = append(order, e.row)
		}
		if i, ok := fieldIdx[e.row][e.field]; ok {
			gr.Fields[i].Messages = append(gr.Fields[i].Messages, e.message)
			continue
		}
		fieldIdx[e.row][e.field] = len(gr.Fields)
		gr.Fields = append(gr.Fields, GroupedField{
			Field:    e.field,
			Messages: []string{e.message},
			Value:    e.value,
		})
	}

	sort.Ints(order)
	out := make([]GroupedRow, len(order))
	for i, r := range order {
		out[i] = *rows[r]
	}
	return out
}

// GroupErrorsByRow collapses errors per row and field. Rows are ascending;
// fields keep first-seen order within a row.
func GroupErrorsByRow(errs []ValidationError) []GroupedRow {
	entries := make([]groupEntry, len(errs))
	for i, e := range errs {
		entries[i] = groupEntry{row: e.Row, field: e.Field, message: e.Message, value: e.Value}
	}
	return group(entries)
}

// GroupChangesByRow collapses changes per row and field. The message is the
// change description and the value is the cleaned value.
func GroupChangesByRow(changes []CleaningChange) []GroupedRow {
	entries := make([]groupEntry, len(changes))
	for i, c := range changes {
		entries[i] = groupEntry{row: c.Row, field: c.Field, message: c.Description, value: c.CleanedValue}
	}
	return group(entries)
}

// FlattenErrors expands grouped rows back into errors, one per message.
func FlattenErrors(grouped []GroupedRow) []ValidationError {
	var out []ValidationError
	for _, g := range grouped {
		for _, f := range g.Fields {
			for _, m := range f.Messages {
				out = append(out, ValidationError{Row: g.Row, Field: f.Field, Message: m, Value: f.Value})
			}
		}
	}
	return out
}

// FieldMessages joins the messages for one row and field, or returns "".
func FieldMessages(grouped []GroupedRow, row int, field Field) string {
	i := sort.Search(len(grouped), func(i int) bool { return grouped[i].Row >= row })
	if i == len(grouped) || grouped[i].Row != row {
		return ""
	}
	for _, f := range grouped[i].Fields {
		if f.Field == field {
			return strings.Join(f.Messages, "\n ")
		}
	}
	return ""
}

// RowsWithErrors returns the ascending row indices that carry at least one error.
func RowsWithErrors(grouped []GroupedRow) []int {
	out := make([]int, len(grouped))
	for i, g := range grouped {
		out[i] = g.Row
	}
	return out
}
