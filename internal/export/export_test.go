package export

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/xuri/excelize/v2"
)

var sampleRows = []core.Row{
	{"email": "a@x.com", "employeeId": "e1", "Notes": "first", "startDate": "2021-07-05"},
	{"email": "b@x.com", "employeeId": "e2", "mobileNumber": "+27821234567", "startDate": nil},
}

// ---- Format Tests ----

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{" XLSX ", FormatXLSX, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	if got := FileName("users", FormatXLSX, at); got != "users_20240102_150405.xlsx" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestColumns(t *testing.T) {
	want := []string{"employeeId", "email", "startDate", "mobileNumber", "Notes"}
	if got := Columns(sampleRows); !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

// ---- Row Export Tests ----

func TestRows_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Rows(&buf, FormatCSV, sampleRows); err != nil {
		t.Fatalf("Rows() error = %v", err)
	}

	want := "employeeId,email,startDate,mobileNumber,Notes\n" +
		"e1,a@x.com,2021-07-05,,first\n" +
		"e2,b@x.com,,+27821234567,\n"
	if buf.String() != want {
		t.Errorf("Rows(csv) =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRows_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Rows(&buf, FormatJSON, sampleRows[:1]); err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	want := `[{"Notes":"first","email":"a@x.com","employeeId":"e1","startDate":"2021-07-05"}]`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Errorf("Rows(json) = %s, want %s", got, want)
	}

	buf.Reset()
	if err := Rows(&buf, FormatJSON, nil); err != nil {
		t.Fatalf("Rows(nil) error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("Rows(json, nil) = %s, want []", got)
	}
}

func TestRows_XLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Rows(&buf, FormatXLSX, sampleRows); err != nil {
		t.Fatalf("Rows() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{SheetName}) {
		t.Fatalf("sheets = %v, want [%s]", got, SheetName)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[0][1] != "email" || rows[1][1] != "a@x.com" || rows[2][3] != "+27821234567" {
		t.Errorf("rows = %v", rows)
	}

	width, err := f.GetColWidth(SheetName, "B")
	if err != nil || width != 30 {
		t.Errorf("email column width = %v (%v), want 30", width, err)
	}
}

func TestRows_Unsupported(t *testing.T) {
	if err := Rows(&bytes.Buffer{}, Format("pdf"), nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Rows(pdf) error = %v, want ErrUnsupportedFormat", err)
	}
}

// ---- Template Tests ----

func TestTemplate_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Template(&buf, FormatCSV); err != nil {
		t.Fatalf("Template() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("template lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "employeeId,firstName,lastName,email,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], core.FieldDescriptions[core.FieldEmployeeID]+",") {
		t.Errorf("descriptions = %q", lines[1])
	}
}

func TestTemplate_XLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Template(&buf, FormatXLSX); err != nil {
		t.Fatalf("Template() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 || len(rows[0]) != len(core.Fields) {
		t.Fatalf("rows = %v, want header and description rows", rows)
	}

	comments, err := f.GetComments(SheetName)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if len(comments) != len(core.Fields) {
		t.Errorf("len(comments) = %d, want %d", len(comments), len(core.Fields))
	}

	tests := []struct {
		col  string
		want float64
	}{
		{"A", 16}, // employeeId
		{"B", 20}, // firstName
		{"D", 30}, // email
		{"J", 18}, // mobileNumber
		{"M", 14}, // country
	}
	for _, tt := range tests {
		if got, _ := f.GetColWidth(SheetName, tt.col); got != tt.want {
			t.Errorf("width %s = %v, want %v", tt.col, got, tt.want)
		}
	}
}

func TestTemplate_JSONUnsupported(t *testing.T) {
	if err := Template(&bytes.Buffer{}, FormatJSON); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Template(json) error = %v, want ErrUnsupportedFormat", err)
	}
}
