package core

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Constraint is the structural shape check for one field, applied to the
// cleaned value after rules and hooks have run.
type Constraint struct {
	Required       bool
	MaxLen         int
	Pattern        *regexp.Regexp
	PatternMessage string
}

var (
	isoDatePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	employeeIDPattern = regexp.MustCompile(`^[a-z0-9\-#]+$`)
	countryPattern    = regexp.MustCompile(`^[A-Z]{3}$`)
	emailShape        = regexp.MustCompile(emailPattern)
)

// Schema holds structural constraints keyed by field.
var Schema = map[Field]Constraint{
	FieldEmployeeID: {
		Required:       true,
		Pattern:        employeeIDPattern,
		PatternMessage: "Employee ID must contain only lowercase letters, numbers, hyphens, and hash symbols",
	},
	FieldFirstName: {Required: true, MaxLen: 100},
	FieldLastName:  {Required: true, MaxLen: 100},
	FieldEmail: {
		Required:       true,
		MaxLen:         255,
		Pattern:        emailShape,
		PatternMessage: "Invalid email format",
	},
	FieldStartDate: {
		Required:       true,
		Pattern:        isoDatePattern,
		PatternMessage: "Start date must be in YYYY-MM-DD format",
	},
	FieldDepartment:      {Required: true},
	FieldDivision:        {Required: true},
	FieldPosition:        {Required: true},
	FieldRegion:          {Required: true},
	FieldMobileNumber:    {Required: true},
	FieldWorkPhoneNumber: {},
	FieldGender:          {Required: true},
	FieldCountry: {
		Required:       true,
		Pattern:        countryPattern,
		PatternMessage: "Country must be a 3-letter ISO code",
	},
	FieldCity: {Required: true},
	FieldDateOfBirth: {
		Required:       true,
		Pattern:        isoDatePattern,
		PatternMessage: "Date of birth must be in YYYY-MM-DD format",
	},
	FieldLanguage: {Required: true},
}

// CheckSchema validates the mapped fields of a cleaned row.
// At most one message per field is returned: required, then length, then shape.
func CheckSchema(row Row, fields []Field) []HookError {
	var errs []HookError
	for _, f := range fields {
		c, ok := Schema[f]
		if !ok {
			continue
		}
		v, present := row[string(f)]
		s := ""
		if present && v != nil {
			s = strings.TrimSpace(toText(v))
		}
		if s == "" {
			if c.Required {
				errs = append(errs, HookError{Field: f, Message: Label(f) + " is required"})
			}
			continue
		}
		if c.MaxLen > 0 && utf8.RuneCountInString(s) > c.MaxLen {
			errs = append(errs, HookError{Field: f, Message: Label(f) + " is too long"})
			continue
		}
		if c.Pattern != nil && !c.Pattern.MatchString(s) {
			msg := c.PatternMessage
			if msg == "" {
				msg = fmt.Sprintf("%s has an invalid format", Label(f))
			}
			errs = append(errs, HookError{Field: f, Message: msg})
		}
	}
	return errs
}
