package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/PeopleImport/internal/core"
)

func writeCSV(w io.Writer, rows []core.Row) error {
	cols := Columns(rows)
	cw := csv.NewWriter(w)

	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(cols))
	for i, row := range rows {
		for j, c := range cols {
			record[j] = cellString(row[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
