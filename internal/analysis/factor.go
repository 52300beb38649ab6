package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// FactorResult holds a principal-component factor extraction over the item
// correlation matrix.
type FactorResult struct {
	Items         []string    `json:"items"`
	N             int         `json:"n"`
	Eigenvalues   []float64   `json:"eigenvalues"`
	Retained      int         `json:"retained"` // Kaiser criterion: eigenvalue > 1
	Loadings      [][]float64 `json:"loadings"` // items x retained factors
	Communalities []float64   `json:"communalities"`
	ExplainedVar  []float64   `json:"explained_var"` // fraction per retained factor
}

// FactorAnalysis extracts principal components from the correlation matrix
// of the named numeric columns and retains factors by the Kaiser criterion.
func FactorAnalysis(t *dataset.Table, items []string) (*FactorResult, error) {
	if len(items) < 2 {
		return nil, fmt.Errorf("factor analysis needs at least 2 items, have %d", len(items))
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
	cases := completeCases(t, cols)
	if len(cases) <= len(cols) {
		return nil, fmt.Errorf("factor analysis needs more cases (%d) than items (%d)", len(cases), len(cols))
	}

	k := len(cols)
	corr := make([][]float64, k)
	for a := 0; a < k; a++ {
		corr[a] = make([]float64, k)
		corr[a][a] = 1
	}
	for a := 0; a < k; a++ {
		xa := column(cases, a)
		for b := a + 1; b < k; b++ {
			r := Pearson(xa, column(cases, b))
			corr[a][b] = r
			corr[b][a] = r
		}
	}

	eigvals, eigvecs := jacobiEigen(corr)
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return eigvals[order[i]] > eigvals[order[j]] })

	res := &FactorResult{Items: names, N: len(cases)}
	for _, idx := range order {
		res.Eigenvalues = append(res.Eigenvalues, eigvals[idx])
	}
	for _, ev := range res.Eigenvalues {
		if ev > 1 {
			res.Retained++
		}
	}
	if res.Retained == 0 {
		res.Retained = 1
	}
	res.Loadings = make([][]float64, k)
	res.Communalities = make([]float64, k)
	for i := 0; i < k; i++ {
		res.Loadings[i] = make([]float64, res.Retained)
		for f := 0; f < res.Retained; f++ {
			ev := res.Eigenvalues[f]
			if ev < 0 {
				ev = 0
			}
			l := eigvecs[i][order[f]] * math.Sqrt(ev)
			res.Loadings[i][f] = l
			res.Communalities[i] += l * l
		}
	}
	for f := 0; f < res.Retained; f++ {
		res.ExplainedVar = append(res.ExplainedVar, res.Eigenvalues[f]/float64(k))
	}
	return res, nil
}

func column(rows [][]float64, j int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[j]
	}
	return out
}

// jacobiEigen diagonalizes a symmetric matrix with cyclic Jacobi rotations.
// Returns eigenvalues and the matrix of column eigenvectors.
func jacobiEigen(m [][]float64) ([]float64, [][]float64) {
	k := len(m)
	a := make([][]float64, k)
	v := make([][]float64, k)
	for i := 0; i < k; i++ {
		a[i] = append([]float64(nil), m[i]...)
		v[i] = make([]float64, k)
		v[i][i] = 1
	}
	for sweep := 0; sweep < 100; sweep++ {
		off := 0.0
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				off += a[i][j] * a[i][j]
			}
		}
		if off < 1e-18 {
			break
		}
		for p := 0; p < k; p++ {
			for q := p + 1; q < k; q++ {
				if math.Abs(a[p][q]) < 1e-15 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c
				for i := 0; i < k; i++ {
					aip := a[i][p]
					aiq := a[i][q]
					a[i][p] = c*aip - s*aiq
					a[i][q] = s*aip + c*aiq
				}
				for i := 0; i < k; i++ {
					api := a[p][i]
					aqi := a[q][i]
					a[p][i] = c*api - s*aqi
					a[q][i] = s*api + c*aqi
				}
				for i := 0; i < k; i++ {
					vip := v[i][p]
					viq := v[i][q]
					v[i][p] = c*vip - s*viq
					v[i][q] = s*vip + c*viq
				}
			}
		}
	}
	vals := make([]float64, k)
	for i := 0; i < k; i++ {
		vals[i] = a[i][i]
	}
	return vals, v
}
