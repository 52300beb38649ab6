package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// Correlation methods.
const (
	CorrPearson  = "pearson"
	CorrSpearman = "spearman"
	CorrKendall  = "kendall"
)

// CorrMatrix holds a symmetric correlation matrix across numeric columns.
type CorrMatrix struct {
	Method  string      `json:"method"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// Pearson computes the correlation of two equal-length complete series,
// clamped to [-1, 1]; 0 when degenerate.
func Pearson(x, y []float64) float64 {
	n := float64(len(x))
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	var sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
		sumXY += x[i] * y[i]
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	return clampR(r)
}

// Spearman computes the rank correlation (average ranks for ties).
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	return Pearson(rankOf(x), rankOf(y))
}

// KendallTau computes Kendall's tau-b with tie correction.
func KendallTau(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}
	var concordant, discordant float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			if dx == 0 || dy == 0 {
				continue
			}
			if dx*dy > 0 {
				concordant++
			} else {
				discordant++
			}
		}
	}
	n0 := float64(n*(n-1)) / 2
	denom := math.Sqrt((n0 - tieTerm(x)) * (n0 - tieTerm(y)))
	if denom == 0 {
		return 0
	}
	return clampR((concordant - discordant) / denom)
}

// tieTerm counts Σ t(t-1)/2 over tie groups of a series.
func tieTerm(v []float64) float64 {
	cp := append([]float64(nil), v...)
	sort.Float64s(cp)
	total := 0.0
	run := 1
	for i := 1; i <= len(cp); i++ {
		if i < len(cp) && cp[i] == cp[i-1] {
			run++
			continue
		}
		if run > 1 {
			total += float64(run*(run-1)) / 2
		}
		run = 1
	}
	return total
}

// rankOf assigns average ranks, 1-based, ties averaged.
func rankOf(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	ranks := make([]float64, len(v))
	i := 0
	for i < len(idx) {
		j := i
		for j+1 < len(idx) && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// PairwiseComplete extracts the rows where both columns parsed as numeric.
func PairwiseComplete(t *dataset.Table, i, j int) (xs, ys []float64) {
	xi, oki := t.NumericValues(i)
	xj, okj := t.NumericValues(j)
	for r := range xi {
		if oki[r] && okj[r] {
			xs = append(xs, xi[r])
			ys = append(ys, xj[r])
		}
	}
	return
}

// Matrix computes the correlation matrix over the table's numeric columns
// using pairwise-complete observations.
func Matrix(t *dataset.Table, method string) (*CorrMatrix, error) {
	cols := t.NumericIndexes()
	if len(cols) < 2 {
		return nil, fmt.Errorf("correlation needs at least 2 numeric columns, have %d", len(cols))
	}
	corr := pairFunc(method)
	if corr == nil {
		return nil, fmt.Errorf("unknown correlation method %q (pearson, spearman, kendall)", method)
	}
	m := &CorrMatrix{Method: method}
	for _, c := range cols {
		m.Columns = append(m.Columns, t.Columns[c].Name)
	}
	n := len(cols)
	m.Values = make([][]float64, n)
	for a := range m.Values {
		m.Values[a] = make([]float64, n)
		m.Values[a][a] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			xs, ys := PairwiseComplete(t, cols[a], cols[b])
			r := 0.0
			if len(xs) >= 2 {
				r = corr(xs, ys)
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m, nil
}

func pairFunc(method string) func(x, y []float64) float64 {
	switch method {
	case "", CorrPearson:
		return Pearson
	case CorrSpearman:
		return Spearman
	case CorrKendall:
		return KendallTau
	}
	return nil
}

// StrongPairs lists pairs with |r| at or above minAbs, strongest first.
func (m *CorrMatrix) StrongPairs(minAbs float64) []PairCorr {
	var out []PairCorr
	for i := 0; i < len(m.Columns); i++ {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.Abs(r) >= minAbs {
				out = append(out, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
			}
		}
	}
	sort.Slice(out, func(a, b int) bool {
		ra, rb := math.Abs(out[a].R), math.Abs(out[b].R)
		if ra == rb {
			return out[a].A+out[a].B < out[b].A+out[b].B
		}
		return ra > rb
	})
	return out
}

func clampR(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}
