// Package core provides the personnel import pipeline.
// This package has no UI or transport dependencies and can be used by any frontend.
package core

import (
	"time"
)

// Field is one of the sixteen target keys of a personnel record.
type Field string

const (
	FieldEmployeeID      Field = "employeeId"
	FieldFirstName       Field = "firstName"
	FieldLastName        Field = "lastName"
	FieldEmail           Field = "email"
	FieldStartDate       Field = "startDate"
	FieldDepartment      Field = "department"
	FieldDivision        Field = "division"
	FieldPosition        Field = "position"
	FieldRegion          Field = "region"
	FieldMobileNumber    Field = "mobileNumber"
	FieldWorkPhoneNumber Field = "workPhoneNumber"
	FieldGender          Field = "gender"
	FieldCountry         Field = "country"
	FieldCity            Field = "city"
	FieldDateOfBirth     Field = "dateOfBirth"
	FieldLanguage        Field = "language"
)

// RuleType classifies the kind of value a field holds.
type RuleType string

const (
	TypeString   RuleType = "string"
	TypeEmail    RuleType = "email"
	TypeDate     RuleType = "date"
	TypePhone    RuleType = "phone"
	TypeCategory RuleType = "category"
	TypeCountry  RuleType = "country"
	TypeID       RuleType = "id"
)

// TrimMode controls whitespace handling.
type TrimMode string

const (
	TrimNone            TrimMode = "none"
	TrimLeft            TrimMode = "left"
	TrimRight           TrimMode = "right"
	TrimBoth            TrimMode = "both"
	TrimNormalizeSpaces TrimMode = "normalizeSpaces"
)

// CaseMode controls case folding.
type CaseMode string

const (
	CaseNone  CaseMode = "none"
	CaseUpper CaseMode = "upper"
	CaseLower CaseMode = "lower"
)

// NormalizeFlags selects the value normalizations a rule applies.
type NormalizeFlags struct {
	PhoneDigitsOnly bool `json:"phoneDigitsOnly,omitempty"`
	ToISODate       bool `json:"toISODate,omitempty"`
	ToISO3          bool `json:"toISO3,omitempty"`
	ToEmployeeID    bool `json:"toEmployeeId,omitempty"`
}

// UniquePolicy enables cross-row duplicate detection for a field.
type UniquePolicy struct {
	IgnoreCase  bool `json:"ignoreCase"`
	IgnoreNulls bool `json:"ignoreNulls"`
}

// CleaningRule is the declarative cleaning and validation policy for one field.
// Rules are pure data; hooks are referenced by registry id.
type CleaningRule struct {
	Type         RuleType       `json:"type"`
	Trim         TrimMode       `json:"trim"`
	Case         CaseMode       `json:"case"`
	Normalize    NormalizeFlags `json:"normalize"`
	Options      []string       `json:"options,omitempty"`
	Regex        string         `json:"regex,omitempty"`
	ColumnHookID string         `json:"columnHookId,omitempty"`
	Unique       *UniquePolicy  `json:"unique,omitempty"`
}

// RuleSet maps every target field to its rule.
type RuleSet map[Field]CleaningRule

// Row is a single record keyed by source header (raw) or target field (cleaned).
// Values are strings, numbers, bools or nil.
type Row map[string]any

// Clone returns a shallow copy of the row. Cell values are scalars.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Mapping maps a source header to the target field it feeds.
type Mapping map[string]Field

// Clone returns a copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidationError is a single problem found on a row/field.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   Field  `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// ChangeKind names a transform that altered a value.
type ChangeKind string

const (
	ChangeTrimmed     ChangeKind = "trimmed"
	ChangeCaseChanged ChangeKind = "caseChanged"
	ChangeNormalized  ChangeKind = "normalized"
	ChangeCustomHook  ChangeKind = "customHook"
	ChangeRowHook     ChangeKind = "rowHook"
)

// CleaningChange records a value the pipeline altered.
// Only recorded when OriginalValue and CleanedValue differ.
type CleaningChange struct {
	Row           int          `json:"row"`
	Field         Field        `json:"field"`
	OriginalValue any          `json:"originalValue"`
	CleanedValue  any          `json:"cleanedValue"`
	ChangeType    []ChangeKind `json:"changeType"`
	Description   string       `json:"description"`
}

// CleaningResult is the output of a pipeline stage.
type CleaningResult struct {
	Rows    []Row             `json:"rows"`
	Errors  []ValidationError `json:"errors"`
	Changes []CleaningChange  `json:"changes"`
}

// ValidationChunk is the unit of streamed work.
// EndRow is exclusive: StartRow + len(Rows).
type ValidationChunk struct {
	StartRow int               `json:"startRow"`
	EndRow   int               `json:"endRow"`
	Rows     []Row             `json:"rows"`
	Errors   []ValidationError `json:"errors"`
	Changes  []CleaningChange  `json:"changes"`
}

// GroupedField collapses every message for one field of one row.
type GroupedField struct {
	Field    Field    `json:"field"`
	Messages []string `json:"messages"`
	Value    any      `json:"value"`
}

// GroupedRow collapses errors or changes for a single row.
type GroupedRow struct {
	Row    int            `json:"row"`
	Fields []GroupedField `json:"fields"`
}

// TableState is the whole editable table: canonical arrays plus derived views.
type TableState struct {
	Rows           []Row             `json:"rows"`
	Errors         []ValidationError `json:"errors"`
	Changes        []CleaningChange  `json:"changes"`
	GroupedErrors  []GroupedRow      `json:"groupedErrors"`
	GroupedChanges []GroupedRow      `json:"groupedChanges"`
}

// Clone deep-copies the state so snapshots never alias live rows.
func (s TableState) Clone() TableState {
	out := TableState{
		Rows:    make([]Row, len(s.Rows)),
		Errors:  append([]ValidationError(nil), s.Errors...),
		Changes: make([]CleaningChange, len(s.Changes)),
	}
	for i, r := range s.Rows {
		out.Rows[i] = r.Clone()
	}
	for i, c := range s.Changes {
		c.ChangeType = append([]ChangeKind(nil), c.ChangeType...)
		out.Changes[i] = c
	}
	out.GroupedErrors = cloneGrouped(s.GroupedErrors)
	out.GroupedChanges = cloneGrouped(s.GroupedChanges)
	return out
}

func cloneGrouped(in []GroupedRow) []GroupedRow {
	if in == nil {
		return nil
	}
	out := make([]GroupedRow, len(in))
	for i, g := range in {
		fields := make([]GroupedField, len(g.Fields))
		for j, f := range g.Fields {
			f.Messages = append([]string(nil), f.Messages...)
			fields[j] = f
		}
		out[i] = GroupedRow{Row: g.Row, Fields: fields}
	}
	return out
}

// ProgressMetadata carries running totals for a validation run.
type ProgressMetadata struct {
	TotalRows              int           `json:"totalRows"`
	ProcessedRows          int           `json:"processedRows"`
	ErrorCount             int           `json:"errorCount"`
	ChangeCount            int           `json:"changeCount"`
	EstimatedTimeRemaining time.Duration `json:"estimatedTimeRemaining"`
}

// ValidationProgress is reported during a run and returned as its final result.
type ValidationProgress struct {
	Chunks         []ValidationChunk `json:"-"`
	Metadata       ProgressMetadata  `json:"metadata"`
	IsComplete     bool              `json:"isComplete"`
	GroupedErrors  []GroupedRow      `json:"groupedErrors,omitempty"`
	GroupedChanges []GroupedRow      `json:"groupedChanges,omitempty"`
}

// State flattens the run's chunks into a TableState.
func (p ValidationProgress) State() TableState {
	var st TableState
	for _, c := range p.Chunks {
		st.Rows = append(st.Rows, c.Rows...)
		st.Errors = append(st.Errors, c.Errors...)
		st.Changes = append(st.Changes, c.Changes...)
	}
	st.GroupedErrors = p.GroupedErrors
	st.GroupedChanges = p.GroupedChanges
	if st.GroupedErrors == nil {
		st.GroupedErrors = GroupErrorsByRow(st.Errors)
	}
	if st.GroupedChanges == nil {
		st.GroupedChanges = GroupChangesByRow(st.Changes)
	}
	return st
}

// RunPhase indicates the current stage of a validation session.
type RunPhase string

const (
	PhaseStarting   RunPhase = "starting"
	PhaseValidating RunPhase = "validating"
	PhaseComplete   RunPhase = "complete"
	PhaseFailed     RunPhase = "failed"
	PhaseCancelled  RunPhase = "cancelled"
)

// RunProgress is the progress snapshot broadcast to session subscribers.
type RunProgress struct {
	SessionID              string        `json:"sessionId"`
	Phase                  RunPhase      `json:"phase"`
	TotalRows              int           `json:"totalRows"`
	ProcessedRows          int           `json:"processedRows"`
	ErrorCount             int           `json:"errorCount"`
	ChangeCount            int           `json:"changeCount"`
	EstimatedTimeRemaining time.Duration `json:"estimatedTimeRemaining"`
	IsComplete             bool          `json:"isComplete"`
	Error                  string        `json:"error,omitempty"` // Non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p RunProgress) Percent() int {
	if p.TotalRows > 0 {
		return (p.ProcessedRows * 100) / p.TotalRows
	}
	if p.IsComplete {
		return 100
	}
	return 0
}
