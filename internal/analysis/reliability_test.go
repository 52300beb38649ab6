package analysis

import (
	"strconv"
	"testing"
)

func TestCronbachAlpha(t *testing.T) {
	rows := make([][]string, 6)
	for i := 0; i < 6; i++ {
		x := float64(i + 1)
		rows[i] = []string{
			strconv.FormatFloat(x, 'f', -1, 64),
			strconv.FormatFloat(2*x, 'f', -1, 64),
			strconv.FormatFloat(x+1, 'f', -1, 64),
		}
	}
	tbl := buildTable(t, []string{"i1", "i2", "i3"}, rows)
	res, err := CronbachAlpha(tbl, []string{"i1", "i2", "i3"})
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	if res.N != 6 {
		t.Fatalf("n = %d", res.N)
	}
	// items are linear transforms of one series: raw alpha (3/2)(1-6v/16v)
	if !closeTo(res.Alpha, 0.9375, 1e-9) {
		t.Fatalf("alpha = %v", res.Alpha)
	}
	if !closeTo(res.StdAlpha, 1, 1e-9) {
		t.Fatalf("std alpha = %v", res.StdAlpha)
	}
	if res.Interpretation != "excellent" {
		t.Fatalf("interpretation = %q", res.Interpretation)
	}
	if len(res.AlphaIfDeleted) != 3 {
		t.Fatalf("alpha-if-deleted = %+v", res.AlphaIfDeleted)
	}
}

func TestCronbachAlphaSkipsIncompleteCases(t *testing.T) {
	tbl := buildTable(t, []string{"i1", "i2"}, [][]string{
		{"1", "2"},
		{"2", "4"},
		{"3", ""},
		{"4", "8"},
	})
	res, err := CronbachAlpha(tbl, []string{"i1", "i2"})
	if err != nil {
		t.Fatalf("alpha: %v", err)
	}
	if res.N != 3 {
		t.Fatalf("n = %d, want complete cases only", res.N)
	}
}

func TestCronbachAlphaErrors(t *testing.T) {
	tbl := buildTable(t, []string{"i1", "i2", "cat"}, [][]string{
		{"1", "2", "a"},
		{"2", "4", "b"},
		{"3", "6", "a"},
	})
	if _, err := CronbachAlpha(tbl, []string{"i1"}); err == nil {
		t.Fatal("want error for a single item")
	}
	if _, err := CronbachAlpha(tbl, []string{"i1", "nope"}); err == nil {
		t.Fatal("want error for a missing item")
	}
	if _, err := CronbachAlpha(tbl, []string{"i1", "cat"}); err == nil {
		t.Fatal("want error for a non-numeric item")
	}
	tiny := buildTable(t, []string{"i1", "i2"}, [][]string{
		{"1", "2"},
		{"2", "4"},
	})
	if _, err := CronbachAlpha(tiny, []string{"i1", "i2"}); err == nil {
		t.Fatal("want error below 3 complete cases")
	}
}

func TestInterpretAlpha(t *testing.T) {
	cases := []struct {
		a    float64
		want string
	}{
		{0.95, "excellent"},
		{0.85, "good"},
		{0.75, "acceptable"},
		{0.65, "questionable"},
		{0.3, "low"},
	}
	for _, c := range cases {
		if got := interpretAlpha(c.a); got != c.want {
			t.Errorf("interpretAlpha(%v) = %q, want %q", c.a, got, c.want)
		}
	}
}
