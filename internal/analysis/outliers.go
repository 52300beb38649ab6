package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Outlier detection methods.
const (
	OutlierMAD        = "mad"
	OutlierZScore     = "zscore"
	OutlierIQR        = "iqr"
	OutlierPercentile = "percentile"
)

// defaultThreshold returns the conventional cutoff per method.
func defaultThreshold(method string) float64 {
	switch method {
	case OutlierZScore:
		return 3.0
	case OutlierIQR:
		return 1.5
	default:
		return 3.5
	}
}

// OutlierRows returns the row indexes whose values are outliers under the
// given method. vals and ok are row-aligned (ok marks parsed numerics).
// MAD requires at least 8 values and degrades to none below that.
func OutlierRows(vals []float64, ok []bool, method string, threshold float64) ([]int, error) {
	present := make([]float64, 0, len(vals))
	rows := make([]int, 0, len(vals))
	for i, v := range vals {
		if ok[i] {
			present = append(present, v)
			rows = append(rows, i)
		}
	}
	if threshold <= 0 {
		threshold = defaultThreshold(method)
	}
	var out []int
	switch method {
	case "", OutlierMAD:
		if len(present) < 8 {
			return nil, nil
		}
		median, mad := medianMAD(present)
		if mad == 0 {
			return nil, nil
		}
		for k, v := range present {
			if math.Abs(0.6745*(v-median)/mad) > threshold {
				out = append(out, rows[k])
			}
		}
	case OutlierZScore:
		d := Describe(present)
		if d.Std == 0 {
			return nil, nil
		}
		for k, v := range present {
			if math.Abs((v-d.Mean)/d.Std) > threshold {
				out = append(out, rows[k])
			}
		}
	case OutlierIQR:
		d := Describe(present)
		iqr := d.Q3 - d.Q1
		lo := d.Q1 - threshold*iqr
		hi := d.Q3 + threshold*iqr
		for k, v := range present {
			if v < lo || v > hi {
				out = append(out, rows[k])
			}
		}
	case OutlierPercentile:
		sorted := append([]float64(nil), present...)
		sort.Float64s(sorted)
		lo := quantileSorted(sorted, 0.01)
		hi := quantileSorted(sorted, 0.99)
		for k, v := range present {
			if v < lo || v > hi {
				out = append(out, rows[k])
			}
		}
	default:
		return nil, fmt.Errorf("unknown outlier method %q (mad, zscore, iqr, percentile)", method)
	}
	return out, nil
}

// MaxAbsRobustZ reports the count over threshold and the maximum |z| using
// the modified z-score, mirroring the schema report's outlier note.
func MaxAbsRobustZ(present []float64, threshold float64) (count int, maxAbsZ float64) {
	if len(present) < 8 {
		return 0, 0
	}
	if threshold <= 0 {
		threshold = 3.5
	}
	median, mad := medianMAD(present)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range present {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > threshold {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return
}
