package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes correlations among numeric columns.
	Correlations bool
	// CorrMethod selects pearson (default), spearman or kendall.
	CorrMethod string
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Outliers counts robust-Z outliers per numeric column.
	Outliers         bool
	OutlierThreshold float64
	// ReliabilityItems computes Cronbach's alpha over the named columns.
	ReliabilityItems []string
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		SampleRows:   5,
		CorrMethod:   CorrPearson,
		Correlations: true,
		Outliers:     true,
	}
}

// Report is a markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name        string             `json:"name"`
	Rows        int                `json:"rows"`
	Processed   int                `json:"processed"`
	Cols        []ColumnSummary    `json:"cols"`
	Samples     [][]string         `json:"samples,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Groups      []GroupResult      `json:"groups,omitempty"`
	Corr        *CorrMatrix        `json:"corr,omitempty"`
	Reliability *ReliabilityResult `json:"reliability,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// Numeric stats
	Stats *Desc `json:"stats,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers_count,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"example_texts,omitempty"`
}

// CategoryCount pairs a categorical value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string                `json:"key"`
	Size      int                   `json:"size"`
	Metrics   map[string]NumSummary `json:"metrics"`
	CorrPairs []PairCorr            `json:"corr_pairs,omitempty"`
}

// NumSummary is a compact numeric aggregate for group metrics.
type NumSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Analyze computes a full report for a detected table.
func Analyze(t *dataset.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.TotalRows, Processed: t.NumRows()}
	if rep.Rows == 0 {
		rep.Rows = t.NumRows()
	}
	if t.Truncated {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to the row cap", rep.Processed, rep.Rows))
	}

	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	for _, row := range t.Head(sampleRows) {
		cp := make([]string, len(row))
		copy(cp, row)
		rep.Samples = append(rep.Samples, cp)
	}

	for j, c := range t.Columns {
		s := ColumnSummary{Name: c.Name, Kind: c.Kind, Unit: c.Unit}
		s.Missing = t.MissingCount(j)
		s.NonNull = t.NumRows() - s.Missing
		switch c.Kind {
		case dataset.KindNumeric:
			vals := t.NumericColumn(j)
			d := Describe(vals)
			s.Stats = &d
			if opt.Outliers {
				thr := opt.OutlierThreshold
				if thr <= 0 {
					thr = 3.5
				}
				s.OutliersCount, s.OutliersMaxAbsZ = MaxAbsRobustZ(vals, thr)
				s.OutlierThreshold = thr
			}
		case dataset.KindCategorical:
			s.TopValues, s.Unique = topValues(t, j, 8)
		case dataset.KindText:
			s.ExampleTexts = exampleTexts(t, j, 3)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(opt.GroupBy) > 0 {
		rep.Groups = groupResults(t, opt)
	}

	if opt.Correlations {
		if m, err := Matrix(t, opt.CorrMethod); err == nil {
			rep.Corr = m
		} else {
			rep.Warnings = append(rep.Warnings, err.Error())
		}
	}

	if len(opt.ReliabilityItems) > 0 {
		rel, err := CronbachAlpha(t, opt.ReliabilityItems)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("reliability skipped: %v", err))
		} else {
			rep.Reliability = rel
		}
	}
	return rep
}

func topValues(t *dataset.Table, col, limit int) ([]CategoryCount, int) {
	counts := map[string]int{}
	for r := range t.Rows {
		v := strings.TrimSpace(t.Cell(r, col))
		if v == "" || len(v) > 64 {
			continue
		}
		if len(counts) >= 10000 { // guard memory
			break
		}
		counts[v]++
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	unique := len(tops)
	if len(tops) > limit {
		tops = tops[:limit]
	}
	return tops, unique
}

func exampleTexts(t *dataset.Table, col, limit int) []string {
	var out []string
	for r := range t.Rows {
		v := strings.TrimSpace(t.Cell(r, col))
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// groupKey builds the composite "col=value | col=value" key for a row.
func groupKey(t *dataset.Table, row int, byCols []int) string {
	var parts []string
	for _, c := range byCols {
		val := strings.TrimSpace(t.Cell(row, c))
		parts = append(parts, fmt.Sprintf("%s=%s", t.Columns[c].Name, safeVal(val)))
	}
	return strings.Join(parts, " | ")
}

func groupResults(t *dataset.Table, opt Options) []GroupResult {
	var byCols []int
	for _, name := range opt.GroupBy {
		if idx := t.ColumnIndex(name); idx >= 0 {
			byCols = append(byCols, idx)
		}
	}
	if len(byCols) == 0 {
		return nil
	}
	numCols := t.NumericIndexes()
	rowsByKey := map[string][]int{}
	for r := range t.Rows {
		key := groupKey(t, r, byCols)
		rowsByKey[key] = append(rowsByKey[key], r)
	}
	out := make([]GroupResult, 0, len(rowsByKey))
	for key, rows := range rowsByKey {
		gr := GroupResult{Key: key, Size: len(rows), Metrics: map[string]NumSummary{}}
		for _, c := range numCols {
			vals, ok := t.NumericValues(c)
			var present []float64
			for _, r := range rows {
				if ok[r] {
					present = append(present, vals[r])
				}
			}
			if len(present) == 0 {
				continue
			}
			d := Describe(present)
			gr.Metrics[t.Columns[c].Name] = NumSummary{Count: d.Count, Min: d.Min, Max: d.Max, Mean: d.Mean}
		}
		if opt.CorrPerGroup {
			gr.CorrPairs = groupCorrPairs(t, rows, numCols, opt.CorrMethod)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func groupCorrPairs(t *dataset.Table, rows []int, numCols []int, method string) []PairCorr {
	corr := pairFunc(method)
	if corr == nil {
		return nil
	}
	var pairs []PairCorr
	for a := 0; a < len(numCols); a++ {
		va, oka := t.NumericValues(numCols[a])
		for b := a + 1; b < len(numCols); b++ {
			vb, okb := t.NumericValues(numCols[b])
			var xs, ys []float64
			for _, r := range rows {
				if oka[r] && okb[r] {
					xs = append(xs, va[r])
					ys = append(ys, vb[r])
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := corr(xs, ys)
			if r == 0 {
				continue
			}
			pairs = append(pairs, PairCorr{A: t.Columns[numCols[a]].Name, B: t.Columns[numCols[b]].Name, R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := absF(pairs[i].R), absF(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > 10 {
		pairs = pairs[:10]
	}
	return pairs
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
