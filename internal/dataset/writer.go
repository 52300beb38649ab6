package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteCSV writes the table as comma-separated values. Units go back onto
// the headers as "(unit)" suffixes so a reload splits them off again.
func WriteCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	w := csv.NewWriter(f)
	header := make([]string, t.NumCols())
	for i, c := range t.Columns {
		header[i] = c.Name
		if c.Unit != "" {
			header[i] = fmt.Sprintf("%s (%s)", c.Name, c.Unit)
		}
	}
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}
