package parser

import (
	"fmt"
	"strings"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// tableParser flattens tabular attachments (csv/tsv/xlsx) into plain text
// through the dataset readers, so delimiter sniffing and sheet handling stay
// in one place.
type tableParser struct{}

func (tableParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	for _, ext := range []string{".csv", ".tsv", ".xlsx", ".xlsm"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (tableParser) Parse(path string) (string, error) {
	t, err := dataset.Load(path, dataset.DefaultLoadOptions())
	if err != nil {
		return "", fmt.Errorf("load table attachment: %w", err)
	}
	return flattenTable(t), nil
}

// flattenTable renders a table as one header line plus one line per row.
func flattenTable(t *dataset.Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.ColumnNames(), ", "))
	b.WriteByte('\n')
	cells := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j := range cells {
			cells[j] = t.Cell(i, j)
		}
		b.WriteString(strings.Join(cells, ", "))
		b.WriteByte('\n')
	}
	return b.String()
}
