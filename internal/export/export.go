// Package export writes cleaned personnel rows and blank import templates in
// CSV, XLSX and JSON.
//
// Columns follow catalog order: every target field present in the data,
// then any carried-over source columns sorted by name.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

// ErrUnsupportedFormat is returned for a format other than csv, xlsx or json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// SheetName is the worksheet used for XLSX output.
const SheetName = "Users"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseFormat accepts a case-insensitive format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

// FileName builds a download name such as users_20240101_150405.csv.
func FileName(prefix string, f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format("20060102_150405"), f)
}

// Columns returns the output column order for rows.
func Columns(rows []core.Row) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			seen[k] = true
		}
	}

	cols := make([]string, 0, len(seen))
	for _, f := range core.Fields {
		if seen[string(f)] {
			cols = append(cols, string(f))
			delete(seen, string(f))
		}
	}
	extra := make([]string, 0, len(seen))
	for k := range seen {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// cellString renders a cell for text formats. Missing and nil values are empty.
func cellString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Rows writes rows to w in format f.
func Rows(w io.Writer, f Format, rows []core.Row) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatXLSX:
		return writeXLSX(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func writeJSON(w io.Writer, rows []core.Row) error {
	if rows == nil {
		rows = []core.Row{}
	}
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
