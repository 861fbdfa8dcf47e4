package export

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/xuri/excelize/v2"
)

// ColumnWidth is the XLSX column width for a target field.
func ColumnWidth(f core.Field) float64 {
	switch f {
	case core.FieldEmail:
		return 30
	case core.FieldMobileNumber, core.FieldWorkPhoneNumber:
		return 18
	case core.FieldStartDate, core.FieldDateOfBirth, core.FieldEmployeeID:
		return 16
	case core.FieldCountry, core.FieldLanguage, core.FieldCity, core.FieldGender:
		return 14
	}
	return 20
}

// newWorkbook returns a file whose only sheet is SheetName.
func newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	return f, nil
}

// setWidths sizes each column by its field.
func setWidths(f *excelize.File, cols []string) error {
	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, ColumnWidth(core.Field(c))); err != nil {
			return fmt.Errorf("set width %s: %w", name, err)
		}
	}
	return nil
}

func boldHeader(f *excelize.File, cols int) error {
	if cols == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", last, style)
}

func writeXLSX(w io.Writer, rows []core.Row) error {
	f, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	cols := Columns(rows)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := boldHeader(f, len(cols)); err != nil {
		return err
	}

	for i, row := range rows {
		values := make([]any, len(cols))
		for j, c := range cols {
			values[j] = row[c]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := setWidths(f, cols); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
