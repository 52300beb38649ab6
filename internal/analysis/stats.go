package analysis

import (
	"math"
	"sort"
)

// Desc holds descriptive statistics for one numeric series.
type Desc struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Skew   float64 `json:"skew"`
}

// Describe computes count, moments and quartiles for a series. Mean and
// variance use Welford's update; quartiles interpolate on the sorted copy.
func Describe(vals []float64) Desc {
	d := Desc{Min: math.Inf(1), Max: math.Inf(-1)}
	if len(vals) == 0 {
		return Desc{}
	}
	var mean, m2, m3 float64
	n := 0
	for _, x := range vals {
		n++
		delta := x - mean
		deltaN := delta / float64(n)
		term := delta * deltaN * float64(n-1)
		m3 += term*deltaN*float64(n-2) - 3*deltaN*m2
		m2 += term
		mean += deltaN
		if x < d.Min {
			d.Min = x
		}
		if x > d.Max {
			d.Max = x
		}
	}
	d.Count = n
	d.Mean = mean
	if n > 1 {
		d.Std = math.Sqrt(m2 / float64(n-1))
	}
	if n > 2 && m2 > 0 {
		// adjusted Fisher-Pearson coefficient, matching common stats packages
		g1 := math.Sqrt(float64(n)) * m3 / math.Pow(m2, 1.5)
		d.Skew = g1 * math.Sqrt(float64(n)*float64(n-1)) / float64(n-2)
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	d.Median = quantileSorted(sorted, 0.5)
	d.Q1 = quantileSorted(sorted, 0.25)
	d.Q3 = quantileSorted(sorted, 0.75)
	return d
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantileSorted(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		d := v - median
		if d < 0 {
			d = -d
		}
		dev[i] = d
	}
	sort.Float64s(dev)
	mad = quantileSorted(dev, 0.5)
	return
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

// sampleVariance returns the n-1 variance.
func sampleVariance(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	m := meanOf(vals)
	s := 0.0
	for _, v := range vals {
		d := v - m
		s += d * d
	}
	return s / float64(n-1)
}
