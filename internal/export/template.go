package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/PeopleImport/internal/core"
	"github.com/xuri/excelize/v2"
)

const commentAuthor = "PeopleImport"

// templateColumns returns the template headers and their descriptions.
func templateColumns() (headers, descriptions []string) {
	for _, f := range core.Fields {
		headers = append(headers, string(f))
		descriptions = append(descriptions, core.FieldDescriptions[f])
	}
	return headers, descriptions
}

// Template writes a blank import template: a header row of target fields
// followed by a row of field descriptions. XLSX output also attaches each
// description to its header cell as a comment.
func Template(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return csvTemplate(w)
	case FormatXLSX:
		return xlsxTemplate(w)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func csvTemplate(w io.Writer) error {
	headers, descriptions := templateColumns()
	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{headers, descriptions}); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func xlsxTemplate(w io.Writer) error {
	headers, descriptions := templateColumns()

	f, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A2", &descriptions); err != nil {
		return fmt.Errorf("write descriptions: %w", err)
	}
	if err := boldHeader(f, len(headers)); err != nil {
		return err
	}

	for i, desc := range descriptions {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		err = f.AddComment(SheetName, excelize.Comment{
			Cell:   cell,
			Author: commentAuthor,
			Text:   desc,
		})
		if err != nil {
			return fmt.Errorf("comment %s: %w", cell, err)
		}
	}

	if err := setWidths(f, headers); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
