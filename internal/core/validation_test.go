package core

import (
	"reflect"
	"strings"
	"testing"
)

func duplicateErrors(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if strings.HasPrefix(e.Message, "Duplicate value") {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_CleansAndRecordsChanges(t *testing.T) {
	plan := MustCompile(Mapping{"Email": FieldEmail, "Country": FieldCountry}, DefaultRules())
	rows := []Row{{"Email": "  Jane@Example.COM ", "Country": "zaf", "Notes": "keep me"}}

	res := Run(rows, plan, nil, 0)

	want := Row{"email": "jane@example.com", "country": "ZAF", "Notes": "keep me"}
	if !reflect.DeepEqual(res.Rows[0], want) {
		t.Errorf("Run() row = %v, want %v", res.Rows[0], want)
	}
	if _, ok := rows[0]["email"]; ok {
		t.Error("Run() modified its input row")
	}

	if len(res.Changes) != 2 {
		t.Fatalf("len(Changes) = %d, want 2: %+v", len(res.Changes), res.Changes)
	}
	email := res.Changes[0]
	if email.Field != FieldEmail {
		t.Fatalf("Changes[0].Field = %q, want email (catalog order)", email.Field)
	}
	wantKinds := []ChangeKind{ChangeTrimmed, ChangeCaseChanged}
	if !reflect.DeepEqual(email.ChangeType, wantKinds) {
		t.Errorf("ChangeType = %v, want %v", email.ChangeType, wantKinds)
	}
	if email.Description != "Cleaned value for email (trimmed, case changed)" {
		t.Errorf("Description = %q", email.Description)
	}
	if email.OriginalValue != "  Jane@Example.COM " {
		t.Errorf("OriginalValue = %v, want the raw cell", email.OriginalValue)
	}
}

func TestRun_HeaderNamedLikeAnotherTarget(t *testing.T) {
	plan := MustCompile(Mapping{"Given": FieldFirstName, "firstName": FieldLastName}, DefaultRules())
	rows := []Row{{"Given": "Ann", "firstName": "Smith"}}

	res := Run(rows, plan, nil, 0)

	want := Row{"firstName": "Ann", "lastName": "Smith"}
	if !reflect.DeepEqual(res.Rows[0], want) {
		t.Errorf("Run() row = %v, want %v", res.Rows[0], want)
	}
	for _, e := range res.Errors {
		if e.Field == FieldFirstName {
			t.Errorf("Run() error on firstName = %q, want none", e.Message)
		}
	}
}

func TestRun_NormalizationExamples(t *testing.T) {
	plan := MustCompile(Mapping{
		"Mobile": FieldMobileNumber,
		"Start":  FieldStartDate,
		"ID":     FieldEmployeeID,
	}, DefaultRules())

	res := Run([]Row{{"Mobile": "0821234567", "Start": 1, "ID": "A12345"}}, plan, nil, 0)
	got := res.Rows[0]

	tests := []struct {
		field Field
		want  any
	}{
		{FieldMobileNumber, "+821234567"},
		{FieldStartDate, "1899-12-31"},
		{FieldEmployeeID, "a12345"},
	}
	for _, tt := range tests {
		if got[string(tt.field)] != tt.want {
			t.Errorf("%s = %#v, want %#v", tt.field, got[string(tt.field)], tt.want)
		}
	}
}

func TestRun_Uniqueness(t *testing.T) {
	plan := MustCompile(Mapping{"ID": FieldEmployeeID}, DefaultRules())

	tests := []struct {
		name     string
		values   []any
		wantRows []int
		wantMsgs []string
	}{
		{
			name:     "case-insensitive duplicate flags the later row",
			values:   []any{"emp1", "EMP1"},
			wantRows: []int{1},
			wantMsgs: []string{"Duplicate value found in row 1"},
		},
		{
			name:     "every repeat references the first row",
			values:   []any{"a", "b", "a", "a"},
			wantRows: []int{2, 3},
			wantMsgs: []string{"Duplicate value found in row 1", "Duplicate value found in row 1"},
		},
		{
			name:   "empty values are ignored",
			values: []any{"", "", nil},
		},
		{
			name:   "distinct values",
			values: []any{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]Row, len(tt.values))
			for i, v := range tt.values {
				rows[i] = Row{"ID": v}
			}
			dups := duplicateErrors(Run(rows, plan, nil, 0).Errors)
			if len(dups) != len(tt.wantRows) {
				t.Fatalf("got %d duplicate errors, want %d: %+v", len(dups), len(tt.wantRows), dups)
			}
			for i, e := range dups {
				if e.Row != tt.wantRows[i] || e.Message != tt.wantMsgs[i] {
					t.Errorf("dup[%d] = (%d, %q), want (%d, %q)", i, e.Row, e.Message, tt.wantRows[i], tt.wantMsgs[i])
				}
			}
		})
	}
}

func TestRun_SharedTrackerAcrossChunks(t *testing.T) {
	plan := MustCompile(Mapping{"Email": FieldEmail}, DefaultRules())
	tracker := NewUniqueTracker()

	first := Run([]Row{{"Email": "a@x.com"}, {"Email": "b@x.com"}}, plan, tracker, 0)
	second := Run([]Row{{"Email": "A@X.com"}}, plan, tracker, 2)

	if dups := duplicateErrors(first.Errors); len(dups) != 0 {
		t.Errorf("first chunk duplicates = %+v, want none", dups)
	}
	dups := duplicateErrors(second.Errors)
	if len(dups) != 1 {
		t.Fatalf("second chunk duplicates = %+v, want one", dups)
	}
	if dups[0].Row != 2 || dups[0].Message != "Duplicate value found in row 1" {
		t.Errorf("duplicate = %+v, want row 2 referencing row 1", dups[0])
	}
	if got := tracker.Len(FieldEmail); got != 2 {
		t.Errorf("tracker.Len(email) = %d, want 2", got)
	}
}

func TestRun_RowMeetingItself(t *testing.T) {
	plan := MustCompile(Mapping{"Email": FieldEmail}, DefaultRules())
	tracker := NewUniqueTracker()
	rows := []Row{{"Email": "a@x.com"}}

	Run(rows, plan, tracker, 5)
	res := Run(rows, plan, tracker, 5)

	if dups := duplicateErrors(res.Errors); len(dups) != 0 {
		t.Errorf("re-running the same global row flagged %+v", dups)
	}
}

func TestSeedTracker_SkipsNegativeIndices(t *testing.T) {
	plan := MustCompile(Mapping{"Email": FieldEmail}, DefaultRules())
	cleaned := []Row{{"email": "a@x.com"}, {"email": "b@x.com"}}

	tracker := NewUniqueTracker()
	SeedTracker(tracker, cleaned, plan, func(i int) int {
		if i == 1 {
			return -1
		}
		return i
	})

	if got := tracker.Len(FieldEmail); got != 1 {
		t.Errorf("tracker.Len(email) = %d, want 1", got)
	}
	res := Run([]Row{{"Email": "b@x.com"}}, plan, tracker, 1)
	if dups := duplicateErrors(res.Errors); len(dups) != 0 {
		t.Errorf("skipped row still tracked: %+v", dups)
	}
}

func TestRun_Idempotent(t *testing.T) {
	plan := MustCompile(fullMapping(), DefaultRules())
	raw := []Row{{
		"Employee ID":   " E-1 ",
		"First name":    "  Jane   ",
		"Email":         "JANE@EXAMPLE.COM",
		"Start date":    "07/05/2021",
		"Mobile number": "082 123 4567",
		"Gender":        "Female",
		"Country":       "z a f",
		"Date of birth": 30000,
	}}

	first := Run(raw, plan, nil, 0)
	if len(first.Changes) == 0 {
		t.Fatal("first Run() recorded no changes")
	}
	second := Run(first.Rows, plan, nil, 0)
	if len(second.Changes) != 0 {
		t.Errorf("second Run() changes = %+v, want none", second.Changes)
	}
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Errorf("second Run() rows = %v, want %v", second.Rows, first.Rows)
	}
}

func TestRun_RowOffset(t *testing.T) {
	plan := MustCompile(Mapping{"Email": FieldEmail, "Gender": FieldGender}, DefaultRules())
	rows := []Row{
		{"Email": " a@x.com", "Gender": "robot"},
		{"Email": "A@x.com", "Gender": "MALE"},
	}

	const start = 10
	res := Run(rows, plan, nil, start)

	for _, e := range res.Errors {
		if e.Row < start || e.Row >= start+len(rows) {
			t.Errorf("error row %d outside [%d, %d)", e.Row, start, start+len(rows))
		}
	}
	for _, c := range res.Changes {
		if c.Row < start || c.Row >= start+len(rows) {
			t.Errorf("change row %d outside [%d, %d)", c.Row, start, start+len(rows))
		}
	}
	if len(res.Errors) != 2 {
		t.Errorf("len(Errors) = %d, want 2 (bad option and duplicate): %+v", len(res.Errors), res.Errors)
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Row: 0, Field: FieldEmail, Message: "Invalid email format"}
	if got := e.Error(); got != "row 1: email: Invalid email format" {
		t.Errorf("Error() = %q", got)
	}
}
