package parser

import (
	"strings"
	"testing"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

func TestTableParserCanParse(t *testing.T) {
	p := tableParser{}
	for _, name := range []string{"a.csv", "b.TSV", "sheet.xlsx", "macro.xlsm"} {
		if !p.CanParse(name) {
			t.Fatalf("CanParse(%q) = false", name)
		}
	}
	for _, name := range []string{"a.txt", "doc.docx", "data.parquet"} {
		if p.CanParse(name) {
			t.Fatalf("CanParse(%q) = true", name)
		}
	}
}

func TestFlattenTable(t *testing.T) {
	tbl := dataset.Sample()
	out := flattenTable(tbl)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != tbl.NumRows()+1 {
		t.Fatalf("lines = %d, want %d", len(lines), tbl.NumRows()+1)
	}
	if lines[0] != strings.Join(tbl.ColumnNames(), ", ") {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Beijing") {
		t.Fatalf("first row = %q", lines[1])
	}
}
