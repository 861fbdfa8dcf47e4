package core

import (
	"reflect"
	"testing"
)

func TestGroupErrorsByRow(t *testing.T) {
	errs := []ValidationError{
		{Row: 3, Field: FieldEmail, Message: "Invalid email format", Value: "x"},
		{Row: 1, Field: FieldCity, Message: "City is required"},
		{Row: 3, Field: FieldCountry, Message: "Country must be a 3-letter ISO code", Value: "ZA"},
		{Row: 3, Field: FieldEmail, Message: "Duplicate value found in row 1", Value: "x"},
	}

	got := GroupErrorsByRow(errs)
	want := []GroupedRow{
		{Row: 1, Fields: []GroupedField{
			{Field: FieldCity, Messages: []string{"City is required"}},
		}},
		{Row: 3, Fields: []GroupedField{
			{Field: FieldEmail, Messages: []string{"Invalid email format", "Duplicate value found in row 1"}, Value: "x"},
			{Field: FieldCountry, Messages: []string{"Country must be a 3-letter ISO code"}, Value: "ZA"},
		}},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupErrorsByRow() = %+v, want %+v", got, want)
	}
}

func TestGroupErrorsByRow_RoundTrip(t *testing.T) {
	errs := []ValidationError{
		{Row: 2, Field: FieldEmail, Message: "a"},
		{Row: 0, Field: FieldCity, Message: "b"},
		{Row: 2, Field: FieldEmail, Message: "c"},
		{Row: 0, Field: FieldGender, Message: "d"},
	}
	want := []ValidationError{
		{Row: 0, Field: FieldCity, Message: "b"},
		{Row: 0, Field: FieldGender, Message: "d"},
		{Row: 2, Field: FieldEmail, Message: "a"},
		{Row: 2, Field: FieldEmail, Message: "c"},
	}

	got := FlattenErrors(GroupErrorsByRow(errs))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenErrors(GroupErrorsByRow()) = %+v, want %+v", got, want)
	}
}

func TestGroupChangesByRow(t *testing.T) {
	changes := []CleaningChange{
		{Row: 4, Field: FieldEmail, CleanedValue: "a@x.com", Description: "Cleaned value for email (trimmed)"},
	}
	got := GroupChangesByRow(changes)
	if len(got) != 1 || got[0].Fields[0].Value != "a@x.com" || got[0].Fields[0].Messages[0] != "Cleaned value for email (trimmed)" {
		t.Errorf("GroupChangesByRow() = %+v", got)
	}
}

func TestGroup_Empty(t *testing.T) {
	if got := GroupErrorsByRow(nil); got == nil || len(got) != 0 {
		t.Errorf("GroupErrorsByRow(nil) = %#v, want empty non-nil", got)
	}
	if got := GroupChangesByRow(nil); got == nil || len(got) != 0 {
		t.Errorf("GroupChangesByRow(nil) = %#v, want empty non-nil", got)
	}
}

func TestFieldMessages(t *testing.T) {
	grouped := GroupErrorsByRow([]ValidationError{
		{Row: 1, Field: FieldEmail, Message: "first"},
		{Row: 1, Field: FieldEmail, Message: "second"},
		{Row: 5, Field: FieldCity, Message: "third"},
	})

	tests := []struct {
		row   int
		field Field
		want  string
	}{
		{1, FieldEmail, "first\n second"},
		{5, FieldCity, "third"},
		{5, FieldEmail, ""},
		{2, FieldEmail, ""},
	}
	for _, tt := range tests {
		if got := FieldMessages(grouped, tt.row, tt.field); got != tt.want {
			t.Errorf("FieldMessages(%d, %s) = %q, want %q", tt.row, tt.field, got, tt.want)
		}
	}

	if got := RowsWithErrors(grouped); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("RowsWithErrors() = %v, want [1 5]", got)
	}
}
