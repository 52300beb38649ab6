package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// ContrastResult compares a numeric metric across the levels of a grouping
// column: per-group aggregates, pairwise mean differences, and dispersion of
// the group means.
type ContrastResult struct {
	GroupColumn string      `json:"group_column"`
	Metric      string      `json:"metric"`
	Groups      []GroupStat `json:"groups"`
	Diffs       []GroupDiff `json:"diffs"`
	OverallMean float64     `json:"overall_mean"`
	// CV is the coefficient of variation of group means (std/mean).
	CV float64 `json:"cv"`
}

// GroupStat is one group's aggregate for the contrast metric.
type GroupStat struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// GroupDiff is the mean difference between two groups (A minus B).
type GroupDiff struct {
	A    string  `json:"a"`
	B    string  `json:"b"`
	Diff float64 `json:"diff"`
}

// Contrast computes a group contrast analysis of metric across groupCol.
func Contrast(t *dataset.Table, groupCol, metric string) (*ContrastResult, error) {
	gi := t.ColumnIndex(groupCol)
	if gi < 0 {
		return nil, fmt.Errorf("group column %q not found", groupCol)
	}
	mi := t.ColumnIndex(metric)
	if mi < 0 {
		return nil, fmt.Errorf("metric column %q not found", metric)
	}
	if t.Columns[mi].Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("metric column %q is %s, need numeric", metric, t.Columns[mi].Kind)
	}
	vals, ok := t.NumericValues(mi)
	byGroup := map[string][]float64{}
	var all []float64
	for r := range t.Rows {
		if !ok[r] {
			continue
		}
		g := strings.TrimSpace(t.Cell(r, gi))
		if g == "" {
			continue
		}
		byGroup[g] = append(byGroup[g], vals[r])
		all = append(all, vals[r])
	}
	if len(byGroup) < 2 {
		return nil, fmt.Errorf("contrast needs at least 2 groups in %q, have %d", groupCol, len(byGroup))
	}

	res := &ContrastResult{GroupColumn: t.Columns[gi].Name, Metric: t.Columns[mi].Name}
	names := make([]string, 0, len(byGroup))
	for g := range byGroup {
		names = append(names, g)
	}
	sort.Strings(names)
	means := make([]float64, 0, len(names))
	for _, g := range names {
		d := Describe(byGroup[g])
		res.Groups = append(res.Groups, GroupStat{Name: g, Count: d.Count, Mean: d.Mean, Std: d.Std})
		means = append(means, d.Mean)
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			res.Diffs = append(res.Diffs, GroupDiff{
				A:    names[i],
				B:    names[j],
				Diff: res.Groups[i].Mean - res.Groups[j].Mean,
			})
		}
	}
	res.OverallMean = meanOf(all)
	mm := meanOf(means)
	if mm != 0 {
		res.CV = math.Sqrt(sampleVariance(means)) / math.Abs(mm)
	}
	return res, nil
}
