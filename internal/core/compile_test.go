package core

import (
	"errors"
	"strings"
	"testing"
)

func fullMapping() Mapping {
	m := make(Mapping, len(Fields))
	for _, f := range Fields {
		m[Label(f)] = f
	}
	return m
}

func TestCompile_FullCatalog(t *testing.T) {
	plan, err := Compile(fullMapping(), DefaultRules())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if len(plan.Entries) != len(Fields) {
		t.Fatalf("len(Entries) = %d, want %d", len(plan.Entries), len(Fields))
	}
	for i, e := range plan.Entries {
		if e.Target != Fields[i] {
			t.Errorf("Entries[%d].Target = %q, want %q (catalog order)", i, e.Target, Fields[i])
		}
	}
	if !plan.HasUniquenessChecks {
		t.Error("HasUniquenessChecks = false, want true")
	}
	if !plan.HasComplexHooks {
		t.Error("HasComplexHooks = false, want true")
	}
	if plan.EstimatedComplexity != ComplexityHigh {
		t.Errorf("EstimatedComplexity = %q, want %q", plan.EstimatedComplexity, ComplexityHigh)
	}
	if len(plan.RowHooks) != 1 || plan.RowHooks[0] != HookEntryInit {
		t.Errorf("RowHooks = %v, want [%s]", plan.RowHooks, HookEntryInit)
	}
}

func TestCompile_Errors(t *testing.T) {
	rulesWithoutEmail := DefaultRules()
	delete(rulesWithoutEmail, FieldEmail)

	tests := []struct {
		name    string
		mapping Mapping
		rules   RuleSet
		opts    PlanOptions
		wantErr []error
	}{
		{
			name:    "unknown field",
			mapping: Mapping{"Nick": "nickname"},
			rules:   DefaultRules(),
			wantErr: []error{ErrUnknownField},
		},
		{
			name:    "missing rule",
			mapping: Mapping{"Email": FieldEmail},
			rules:   rulesWithoutEmail,
			wantErr: []error{ErrMissingRule},
		},
		{
			name:    "unknown row hook",
			mapping: Mapping{"City": FieldCity},
			rules:   DefaultRules(),
			opts:    PlanOptions{RowHooks: []string{"doesNotExist"}},
			wantErr: []error{ErrUnknownHook},
		},
		{
			name:    "two headers claim one field",
			mapping: Mapping{"Email": FieldEmail, "Mail": FieldEmail},
			rules:   DefaultRules(),
			wantErr: []error{ErrDuplicateTarget},
		},
		{
			name:    "every problem is reported",
			mapping: Mapping{"Nick": "nickname", "Email": FieldEmail},
			rules:   rulesWithoutEmail,
			wantErr: []error{ErrUnknownField, ErrMissingRule},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := CompileWith(tt.mapping, tt.rules, tt.opts)
			if err == nil {
				t.Fatalf("CompileWith() = %v, want error", plan)
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("CompileWith() error = %v, want it to wrap %v", err, want)
				}
			}
		})
	}
}

func TestMustCompile_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile() did not panic on an unknown field")
		}
	}()
	MustCompile(Mapping{"x": "nope"}, DefaultRules())
}

func TestCompile_Validators(t *testing.T) {
	plan := MustCompile(Mapping{"Gender": FieldGender, "Lang": FieldLanguage}, DefaultRules())

	tests := []struct {
		name    string
		header  string
		value   any
		wantMsg string
		wantOK  bool
	}{
		{"option after case folding", "Gender", "Female", "", true},
		{"option outside set", "Gender", "robot", "Invalid option: robot", false},
		{"empty option passes", "Gender", "", "", true},
		{"regex match", "Lang", "English", "", true},
		{"regex mismatch", "Lang", "123", "Invalid format", false},
		{"empty regex passes", "Lang", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := plan.Entry(tt.header)
			if !ok {
				t.Fatalf("Entry(%q) not found", tt.header)
			}
			msg, pass := "", true
			for _, check := range e.validators {
				if m, ok := check(tt.value); !ok {
					msg, pass = m, false
					break
				}
			}
			if pass != tt.wantOK || msg != tt.wantMsg {
				t.Errorf("validate(%v) = (%q, %v), want (%q, %v)", tt.value, msg, pass, tt.wantMsg, tt.wantOK)
			}
		})
	}
}

func TestCompile_Complexity(t *testing.T) {
	tests := []struct {
		name    string
		mapping Mapping
		opts    PlanOptions
		want    string
	}{
		{"single plain field", Mapping{"City": FieldCity}, PlanOptions{}, ComplexityLow},
		{"row hook on small mapping", Mapping{"City": FieldCity}, DefaultPlanOptions(), ComplexityLow},
		{"unique plus column hook", Mapping{"ID": FieldEmployeeID, "Email": FieldEmail}, PlanOptions{}, ComplexityMedium},
		{"everything", fullMapping(), DefaultPlanOptions(), ComplexityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := CompileWith(tt.mapping, DefaultRules(), tt.opts)
			if err != nil {
				t.Fatalf("CompileWith() error = %v", err)
			}
			if plan.EstimatedComplexity != tt.want {
				t.Errorf("EstimatedComplexity = %q, want %q", plan.EstimatedComplexity, tt.want)
			}
		})
	}
}

func TestPlanEntry_OptionSet(t *testing.T) {
	plan := MustCompile(Mapping{"Gender": FieldGender}, DefaultRules())
	e, _ := plan.Entry("Gender")
	got := e.OptionSet()
	if len(got) != len(GenderOptions) {
		t.Fatalf("OptionSet() = %v, want %d options", got, len(GenderOptions))
	}
	if got[0] != "female" {
		t.Errorf("OptionSet()[0] = %q, want sorted output starting with %q", got[0], "female")
	}
}

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name  string
		row   Row
		field Field
		want  string
	}{
		{"required missing", Row{}, FieldFirstName, "First name is required"},
		{"optional missing", Row{}, FieldWorkPhoneNumber, ""},
		{"bad email", Row{"email": "jane@"}, FieldEmail, "Invalid email format"},
		{"good email", Row{"email": "jane@example.com"}, FieldEmail, ""},
		{"bad date", Row{"startDate": InvalidDate}, FieldStartDate, "Start date must be in YYYY-MM-DD format"},
		{"bad country", Row{"country": "ZA"}, FieldCountry, "Country must be a 3-letter ISO code"},
		{"bad employee id", Row{"employeeId": "E_1"}, FieldEmployeeID, "Employee ID must contain only lowercase letters, numbers, hyphens, and hash symbols"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckSchema(tt.row, []Field{tt.field})
			got := ""
			if len(errs) > 0 {
				got = errs[0].Message
			}
			if got != tt.want {
				t.Errorf("CheckSchema() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckSchema_TooLong(t *testing.T) {
	long := strings.Repeat("a", 101)
	errs := CheckSchema(Row{"firstName": long}, []Field{FieldFirstName})
	if len(errs) != 1 || errs[0].Message != "First name is too long" {
		t.Errorf("CheckSchema() = %+v, want one 'First name is too long'", errs)
	}
}
