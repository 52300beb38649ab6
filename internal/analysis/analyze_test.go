package analysis

import (
	"strings"
	"testing"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// buildTable constructs a detected table for tests.
func buildTable(t *testing.T, headers []string, rows [][]string) *dataset.Table {
	t.Helper()
	tbl := dataset.New("test", headers)
	for _, r := range rows {
		tbl.AppendRow(r)
	}
	tbl.TotalRows = len(tbl.Rows)
	tbl.Detect(dataset.DefaultParseOptions())
	return tbl
}

func TestAnalyzeSampleTable(t *testing.T) {
	rep := Analyze(dataset.Sample(), DefaultOptions())
	if rep.Name != "sample_customers" || rep.Rows != 5 || rep.Processed != 5 {
		t.Fatalf("header = %q/%d/%d", rep.Name, rep.Rows, rep.Processed)
	}
	if len(rep.Cols) != 4 {
		t.Fatalf("cols = %d", len(rep.Cols))
	}
	age := rep.Cols[0]
	if age.Name != "age" || age.Kind != dataset.KindNumeric || age.Stats == nil {
		t.Fatalf("age = %+v", age)
	}
	if age.Stats.Count != 5 || !closeTo(age.Stats.Mean, 35, 1e-12) {
		t.Fatalf("age stats = %+v", age.Stats)
	}
	city := rep.Cols[3]
	if city.Kind != dataset.KindCategorical || city.Unique != 5 {
		t.Fatalf("city = %+v", city)
	}
	if rep.Corr == nil || len(rep.Corr.Columns) != 3 {
		t.Fatalf("corr = %+v", rep.Corr)
	}
	if len(rep.Samples) != 5 {
		t.Fatalf("samples = %d", len(rep.Samples))
	}
}

func TestAnalyzeGroupBy(t *testing.T) {
	tbl := buildTable(t, []string{"region", "sales", "cost"}, [][]string{
		{"north", "10", "5"},
		{"north", "20", "9"},
		{"north", "30", "14"},
		{"south", "100", "40"},
		{"south", "200", "90"},
		{"south", "300", "130"},
	})
	opt := DefaultOptions()
	opt.GroupBy = []string{"region"}
	opt.CorrPerGroup = true
	rep := Analyze(tbl, opt)
	if len(rep.Groups) != 2 {
		t.Fatalf("groups = %+v", rep.Groups)
	}
	for _, g := range rep.Groups {
		if g.Size != 3 {
			t.Fatalf("group %q size = %d", g.Key, g.Size)
		}
		if _, ok := g.Metrics["sales"]; !ok {
			t.Fatalf("group %q metrics = %+v", g.Key, g.Metrics)
		}
		if len(g.CorrPairs) == 0 {
			t.Fatalf("group %q has no correlation pairs", g.Key)
		}
	}
	north := rep.Groups[0]
	if !strings.Contains(north.Key, "region=") {
		t.Fatalf("key = %q", north.Key)
	}
	if m := north.Metrics["sales"]; m.Count != 3 {
		t.Fatalf("sales metric = %+v", m)
	}
}

func TestAnalyzeMissingGroupColumn(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = []string{"nope"}
	rep := Analyze(dataset.Sample(), opt)
	if rep.Groups != nil {
		t.Fatalf("groups = %+v", rep.Groups)
	}
}

func TestAnalyzeReliability(t *testing.T) {
	tbl := buildTable(t, []string{"i1", "i2", "i3"}, [][]string{
		{"1", "2", "2"},
		{"2", "4", "3"},
		{"3", "6", "4"},
		{"4", "8", "5"},
	})
	opt := DefaultOptions()
	opt.ReliabilityItems = []string{"i1", "i2", "i3"}
	rep := Analyze(tbl, opt)
	if rep.Reliability == nil {
		t.Fatalf("reliability missing, warnings = %v", rep.Warnings)
	}
	if rep.Reliability.N != 4 {
		t.Fatalf("reliability = %+v", rep.Reliability)
	}
}

func TestAnalyzeReliabilityFailureBecomesWarning(t *testing.T) {
	opt := DefaultOptions()
	opt.ReliabilityItems = []string{"age", "nope"}
	rep := Analyze(dataset.Sample(), opt)
	if rep.Reliability != nil {
		t.Fatal("reliability should be skipped")
	}
	found := false
	for _, w := range rep.Warnings {
		if strings.Contains(w, "reliability skipped") {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", rep.Warnings)
	}
}

func TestMarkdownSections(t *testing.T) {
	tbl := buildTable(t, []string{"region", "sales", "cost"}, [][]string{
		{"north", "10", "5"},
		{"north", "20", "9"},
		{"north", "30", "14"},
		{"south", "100", "40"},
		{"south", "200", "90"},
		{"south", "300", "130"},
	})
	opt := DefaultOptions()
	opt.GroupBy = []string{"region"}
	opt.CorrPerGroup = true
	rep := Analyze(tbl, opt)
	rep.Warnings = append(rep.Warnings, "synthetic note")
	md := rep.Markdown()
	for _, section := range []string{
		"[DATASET SUMMARY]",
		"[SCHEMA]",
		"[GROUP-BY SUMMARY]",
		"[PER-GROUP CORRELATIONS]",
		"[CORRELATIONS]",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]",
	} {
		if !strings.Contains(md, section) {
			t.Fatalf("%s missing:\n%s", section, md)
		}
	}
	if !strings.Contains(md, "- sales: numeric") {
		t.Fatalf("schema line missing:\n%s", md)
	}
	if !strings.Contains(md, "sales ~ cost") && !strings.Contains(md, "cost ~ sales") {
		t.Fatalf("correlation pair missing:\n%s", md)
	}
	if !strings.Contains(md, "| region | sales | cost |") {
		t.Fatalf("sample header missing:\n%s", md)
	}
	if !strings.Contains(md, "synthetic note") {
		t.Fatalf("notes missing:\n%s", md)
	}
}

func TestMarkdownReliabilitySection(t *testing.T) {
	tbl := buildTable(t, []string{"i1", "i2", "i3"}, [][]string{
		{"1", "2", "2"},
		{"2", "4", "3"},
		{"3", "6", "4"},
		{"4", "8", "5"},
	})
	opt := DefaultOptions()
	opt.ReliabilityItems = []string{"i1", "i2", "i3"}
	rep := Analyze(tbl, opt)
	md := rep.Markdown()
	if !strings.Contains(md, "[RELIABILITY]") {
		t.Fatalf("reliability section missing:\n%s", md)
	}
	if !strings.Contains(md, "Cronbach's alpha") {
		t.Fatalf("alpha line missing:\n%s", md)
	}
	if !strings.Contains(md, "alpha if i1 deleted") {
		t.Fatalf("alpha-if-deleted missing:\n%s", md)
	}
}

func TestMarkdownEscapesPipes(t *testing.T) {
	tbl := buildTable(t, []string{"note"}, [][]string{
		{"a|b"},
		{"plain"},
	})
	rep := Analyze(tbl, DefaultOptions())
	md := rep.Markdown()
	if strings.Contains(md, "a|b") {
		t.Fatalf("pipe not escaped:\n%s", md)
	}
	if !strings.Contains(md, "a/b") {
		t.Fatalf("escaped value missing:\n%s", md)
	}
}

func TestMarkdownTruncationWarning(t *testing.T) {
	tbl := buildTable(t, []string{"v"}, [][]string{{"1"}, {"2"}})
	tbl.Truncated = true
	tbl.TotalRows = 1000
	rep := Analyze(tbl, DefaultOptions())
	md := rep.Markdown()
	if !strings.Contains(md, "Rows: ~1000 (processed 2)") {
		t.Fatalf("truncation header missing:\n%s", md)
	}
	if !strings.Contains(md, "[NOTES]") || !strings.Contains(md, "row cap") {
		t.Fatalf("truncation note missing:\n%s", md)
	}
}

func TestGroupKeyEscapes(t *testing.T) {
	tbl := buildTable(t, []string{"g", "v"}, [][]string{
		{"x|y", "1"},
		{"x|y", "2"},
		{"z", "3"},
	})
	opt := DefaultOptions()
	opt.GroupBy = []string{"g"}
	rep := Analyze(tbl, opt)
	found := false
	for _, g := range rep.Groups {
		if g.Key == "g=x/y" {
			found = true
		}
		if strings.Contains(g.Key, "x|y") {
			t.Fatalf("key = %q, pipe should be escaped", g.Key)
		}
	}
	if !found {
		t.Fatalf("groups = %+v", rep.Groups)
	}
}
