package core

// convert.go provides the normalization utilities the pipeline applies to raw
// cell values before validation.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Excel serial dates and a fixed, ordered list of textual date layouts
//   - Phone numbers with punctuation, spaces and international prefixes
//   - Country codes typed with stray spaces and mixed case
//   - Employee identifiers carrying decoration characters
//
// Every function is nil-preserving: a nil input yields a nil output.

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cast"
)

// InvalidDate is the sentinel produced when a date value cannot be parsed.
const InvalidDate = "Invalid Date"

// isoDateLayout is the canonical output layout for every date field.
const isoDateLayout = "2006-01-02"

// excelEpoch is day zero of the Excel 1900 date system. Anchoring on
// 1899-12-30 absorbs Excel's phantom 1900-02-29.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Date layouts tried in order; the first successful parse wins.
var dateLayouts = []string{
	"2006-01-02", // yyyy-MM-dd
	"1/2/06",     // M/d/yy
	"1/2/2006",   // M/d/yyyy
	"01/02/2006", // MM/dd/yyyy
	"02/01/2006", // dd/MM/yyyy
	"2/1/06",     // d/M/yy
	"2006/01/02", // yyyy/MM/dd
	"01-02-2006", // MM-dd-yyyy
	"02-01-2006", // dd-MM-yyyy
}

// fallbackDateLayouts approximate a generic date parse for values none of
// the primary layouts accept.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"2006.01.02",
	"20060102",
}

var (
	employeeIDStrip = regexp.MustCompile(`[^a-z0-9\-#]`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// toText converts a scalar cell value to its string form.
func toText(v any) string {
	return cast.ToString(v)
}

// isNumber reports whether v holds a numeric Go type.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// TrimValue applies a trim mode to string values. Other values pass through.
func TrimValue(v any, mode TrimMode) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch mode {
	case TrimBoth:
		return strings.TrimSpace(s)
	case TrimLeft:
		return strings.TrimLeftFunc(s, unicode.IsSpace)
	case TrimRight:
		return strings.TrimRightFunc(s, unicode.IsSpace)
	case TrimNormalizeSpaces:
		return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
	default:
		return s
	}
}

// NormalizeCase applies a case mode to string values. Other values pass through.
func NormalizeCase(v any, mode CaseMode) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch mode {
	case CaseLower:
		return strings.ToLower(s)
	case CaseUpper:
		return strings.ToUpper(s)
	default:
		return s
	}
}

// NormalizeBasic applies the rule's normalize flags in a fixed order.
func NormalizeBasic(v any, rule CleaningRule) any {
	if v == nil {
		return nil
	}
	if rule.Normalize.ToISODate {
		v = NormalizeDate(v)
	}
	if rule.Normalize.PhoneDigitsOnly {
		v = NormalizePhone(v)
	}
	if rule.Normalize.ToISO3 {
		v = NormalizeCountry(v)
	}
	if rule.Normalize.ToEmployeeID {
		v = NormalizeEmployeeID(v)
	}
	return v
}

// NormalizeDate converts an Excel serial number or a date string to yyyy-MM-dd.
// Unparseable values become InvalidDate; empty strings stay empty.
func NormalizeDate(v any) any {
	if v == nil {
		return nil
	}
	if isNumber(v) {
		return ExcelSerialToISO(cast.ToFloat64(v))
	}
	s := strings.TrimSpace(toText(v))
	if s == "" {
		return ""
	}
	if t, ok := parseDate(s); ok {
		return t.Format(isoDateLayout)
	}
	return InvalidDate
}

// ExcelSerialToISO converts an Excel serial day number to yyyy-MM-dd.
// Fractional days (time of day) are discarded.
func ExcelSerialToISO(serial float64) string {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return InvalidDate
	}
	days := int(math.Floor(serial))
	return excelEpoch.AddDate(0, 0, days).Format(isoDateLayout)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizePhone reduces a phone number to digits with a single leading '+'.
// A "00" prefix or a single leading "0" becomes "+"; anything else lacking a
// '+' gets one prepended. No country information is used.
func NormalizePhone(v any) any {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(toText(v))
	plus := strings.HasPrefix(s, "+")

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return ""
	}
	switch {
	case plus:
		return "+" + d
	case strings.HasPrefix(d, "00"):
		return "+" + d[2:]
	case strings.HasPrefix(d, "0"):
		return "+" + d[1:]
	default:
		return "+" + d
	}
}

// StripPhone keeps only digits and '+' characters.
func StripPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeCountry uppercases and removes whitespace ("u s a" -> "USA").
func NormalizeCountry(v any) any {
	if v == nil {
		return nil
	}
	return strings.ToUpper(StripSpaces(toText(v)))
}

// NormalizeEmployeeID lowercases and drops everything outside [a-z0-9-#].
func NormalizeEmployeeID(v any) any {
	if v == nil {
		return nil
	}
	return employeeIDStrip.ReplaceAllString(strings.ToLower(toText(v)), "")
}

// StripSpaces removes every whitespace rune.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
