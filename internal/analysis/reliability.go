package analysis

import (
	"fmt"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// ReliabilityResult holds Cronbach's alpha for a set of scale items.
type ReliabilityResult struct {
	Items          []string           `json:"items"`
	N              int                `json:"n"` // complete cases
	Alpha          float64            `json:"alpha"`
	StdAlpha       float64            `json:"std_alpha"`
	AlphaIfDeleted map[string]float64 `json:"alpha_if_deleted,omitempty"`
	Interpretation string             `json:"interpretation"`
}

// CronbachAlpha computes the raw and standardized alpha over complete cases
// of the named item columns, plus alpha-if-item-deleted for each item.
func CronbachAlpha(t *dataset.Table, items []string) (*ReliabilityResult, error) {
	if len(items) < 2 {
		return nil, fmt.Errorf("reliability needs at least 2 items, have %d", len(items))
	}
	cols := make([]int, 0, len(items))
	names := make([]string, 0, len(items))
	for _, it := range items {
		idx := t.ColumnIndex(it)
		if idx < 0 {
			return nil, fmt.Errorf("item column %q not found", it)
		}
		if t.Columns[idx].Kind != dataset.KindNumeric {
			return nil, fmt.Errorf("item column %q is %s, need numeric", it, t.Columns[idx].Kind)
		}
		cols = append(cols, idx)
		names = append(names, t.Columns[idx].Name)
	}

	// complete cases only
	matrix := completeCases(t, cols)
	if len(matrix) < 3 {
		return nil, fmt.Errorf("reliability needs at least 3 complete cases, have %d", len(matrix))
	}

	res := &ReliabilityResult{Items: names, N: len(matrix)}
	res.Alpha = rawAlpha(matrix)
	res.StdAlpha = standardizedAlpha(matrix)
	res.AlphaIfDeleted = make(map[string]float64, len(names))
	for drop := range names {
		sub := make([][]float64, len(matrix))
		for r, row := range matrix {
			sub[r] = append(append([]float64(nil), row[:drop]...), row[drop+1:]...)
		}
		if len(sub[0]) >= 2 {
			res.AlphaIfDeleted[names[drop]] = rawAlpha(sub)
		}
	}
	res.Interpretation = interpretAlpha(res.Alpha)
	return res, nil
}

// completeCases extracts rows where every listed column parsed as numeric,
// as item-major rows.
func completeCases(t *dataset.Table, cols []int) [][]float64 {
	type colData struct {
		vals []float64
		ok   []bool
	}
	data := make([]colData, len(cols))
	for i, c := range cols {
		data[i].vals, data[i].ok = t.NumericValues(c)
	}
	var out [][]float64
	for r := 0; r < t.NumRows(); r++ {
		row := make([]float64, len(cols))
		complete := true
		for i := range cols {
			if !data[i].ok[r] {
				complete = false
				break
			}
			row[i] = data[i].vals[r]
		}
		if complete {
			out = append(out, row)
		}
	}
	return out
}

// rawAlpha computes (k/(k-1)) * (1 - sum(item variances)/variance(total)).
func rawAlpha(matrix [][]float64) float64 {
	k := len(matrix[0])
	n := len(matrix)
	itemVarSum := 0.0
	totals := make([]float64, n)
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			col[r] = matrix[r][j]
			totals[r] += matrix[r][j]
		}
		itemVarSum += sampleVariance(col)
	}
	totalVar := sampleVariance(totals)
	if totalVar == 0 {
		return 0
	}
	return float64(k) / float64(k-1) * (1 - itemVarSum/totalVar)
}

// standardizedAlpha computes k*rbar / (1 + (k-1)*rbar) where rbar is the
// mean inter-item Pearson correlation.
func standardizedAlpha(matrix [][]float64) float64 {
	k := len(matrix[0])
	n := len(matrix)
	sum := 0.0
	pairs := 0
	for a := 0; a < k; a++ {
		xa := make([]float64, n)
		for r := 0; r < n; r++ {
			xa[r] = matrix[r][a]
		}
		for b := a + 1; b < k; b++ {
			xb := make([]float64, n)
			for r := 0; r < n; r++ {
				xb[r] = matrix[r][b]
			}
			sum += Pearson(xa, xb)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	rbar := sum / float64(pairs)
	denom := 1 + float64(k-1)*rbar
	if denom == 0 {
		return 0
	}
	return float64(k) * rbar / denom
}

func interpretAlpha(a float64) string {
	switch {
	case a >= 0.9:
		return "excellent"
	case a >= 0.8:
		return "good"
	case a >= 0.7:
		return "acceptable"
	case a >= 0.6:
		return "questionable"
	default:
		return "low"
	}
}
