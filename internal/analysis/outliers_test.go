package analysis

import "testing"

func allOK(n int) []bool {
	ok := make([]bool, n)
	for i := range ok {
		ok[i] = true
	}
	return ok
}

func TestOutlierRowsMAD(t *testing.T) {
	vals := []float64{10, 11, 9, 10, 12, 10, 11, 9, 10, 1000}
	rows, err := OutlierRows(vals, allOK(len(vals)), OutlierMAD, 0)
	if err != nil {
		t.Fatalf("mad: %v", err)
	}
	if len(rows) != 1 || rows[0] != 9 {
		t.Fatalf("rows = %v, want [9]", rows)
	}
}

func TestOutlierRowsMADNeedsEight(t *testing.T) {
	vals := []float64{1, 2, 3, 1000}
	rows, err := OutlierRows(vals, allOK(len(vals)), OutlierMAD, 0)
	if err != nil || rows != nil {
		t.Fatalf("rows = %v, err = %v, want none below 8 values", rows, err)
	}
}

func TestOutlierRowsZScore(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = 10
	}
	vals[13] = 1000
	vals[0] = 9  // avoid zero variance among the rest
	vals[1] = 11 // symmetric nudge
	rows, err := OutlierRows(vals, allOK(len(vals)), OutlierZScore, 3)
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	if len(rows) != 1 || rows[0] != 13 {
		t.Fatalf("rows = %v, want [13]", rows)
	}
}

func TestOutlierRowsIQR(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	rows, err := OutlierRows(vals, allOK(len(vals)), OutlierIQR, 1.5)
	if err != nil {
		t.Fatalf("iqr: %v", err)
	}
	if len(rows) != 1 || rows[0] != 9 {
		t.Fatalf("rows = %v, want [9]", rows)
	}
}

func TestOutlierRowsPercentile(t *testing.T) {
	vals := make([]float64, 200)
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	rows, err := OutlierRows(vals, allOK(len(vals)), OutlierPercentile, 0)
	if err != nil {
		t.Fatalf("percentile: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %v, want the 1st/99th percentile tails", rows)
	}
	for _, r := range rows {
		if r > 1 && r < 198 {
			t.Fatalf("row %d is not in a tail", r)
		}
	}
}

func TestOutlierRowsSkipsUnparsed(t *testing.T) {
	vals := []float64{10, 11, 9, 10, 12, 10, 11, 9, 10, 1000}
	ok := allOK(len(vals))
	ok[9] = false
	rows, err := OutlierRows(vals, ok, OutlierMAD, 0)
	if err != nil {
		t.Fatalf("mad: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %v, masked outlier should be ignored", rows)
	}
}

func TestOutlierRowsUnknownMethod(t *testing.T) {
	if _, err := OutlierRows([]float64{1}, []bool{true}, "grubbs", 0); err == nil {
		t.Fatal("want error for unknown method")
	}
}

func TestMaxAbsRobustZ(t *testing.T) {
	vals := []float64{10, 11, 9, 10, 12, 10, 11, 9, 10, 1000}
	count, maxZ := MaxAbsRobustZ(vals, 3.5)
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
	if maxZ < 100 {
		t.Fatalf("maxZ = %v, want the extreme's score", maxZ)
	}
	if c, z := MaxAbsRobustZ([]float64{1, 2, 3}, 3.5); c != 0 || z != 0 {
		t.Fatalf("short series: %d/%v", c, z)
	}
	if c, z := MaxAbsRobustZ([]float64{5, 5, 5, 5, 5, 5, 5, 5}, 3.5); c != 0 || z != 0 {
		t.Fatalf("zero MAD: %d/%v", c, z)
	}
}
