package analysis

import (
	"strconv"
	"testing"
)

func TestCriterionValidity(t *testing.T) {
	xs := []float64{-3, -1, 1, 3, -3, -1, 1, 3}
	bs := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	rows := make([][]string, len(xs))
	for i := range xs {
		rows[i] = []string{
			strconv.FormatFloat(xs[i], 'f', -1, 64),  // crit
			strconv.FormatFloat(xs[i], 'f', -1, 64),  // same series
			strconv.FormatFloat(-xs[i], 'f', -1, 64), // inverted
			strconv.FormatFloat(bs[i], 'f', -1, 64),  // orthogonal
		}
	}
	tbl := buildTable(t, []string{"crit", "same", "inv", "orth"}, rows)
	res, err := CriterionValidity(tbl, []string{"same", "inv", "orth", "crit"}, "crit")
	if err != nil {
		t.Fatalf("validity: %v", err)
	}
	if res.Criterion != "crit" {
		t.Fatalf("criterion = %q", res.Criterion)
	}
	if len(res.Items) != 3 {
		t.Fatalf("items = %+v, criterion itself should be skipped", res.Items)
	}
	byItem := map[string]ItemValidity{}
	for _, it := range res.Items {
		byItem[it.Item] = it
	}
	if it := byItem["same"]; !closeTo(it.R, 1, 1e-9) || it.Level != "high" {
		t.Fatalf("same = %+v", it)
	}
	if it := byItem["inv"]; !closeTo(it.R, -1, 1e-9) || it.Level != "high" {
		t.Fatalf("inv = %+v", it)
	}
	if it := byItem["orth"]; !closeTo(it.R, 0, 1e-9) || it.Level != "weak" {
		t.Fatalf("orth = %+v", it)
	}
}

func TestCriterionValidityErrors(t *testing.T) {
	tbl := buildTable(t, []string{"a", "cat"}, [][]string{
		{"1", "x"},
		{"2", "y"},
	})
	if _, err := CriterionValidity(tbl, []string{"a"}, "nope"); err == nil {
		t.Fatal("want error for a missing criterion")
	}
	if _, err := CriterionValidity(tbl, []string{"a"}, "cat"); err == nil {
		t.Fatal("want error for a non-numeric criterion")
	}
	if _, err := CriterionValidity(tbl, []string{"nope"}, "a"); err == nil {
		t.Fatal("want error for a missing item")
	}
	if _, err := CriterionValidity(tbl, []string{"a"}, "a"); err == nil {
		t.Fatal("want error when only the criterion is listed")
	}
}

func TestValidityLevel(t *testing.T) {
	cases := []struct {
		r    float64
		want string
	}{
		{0.8, "high"},
		{-0.75, "high"},
		{0.55, "medium"},
		{0.35, "low"},
		{0.1, "weak"},
	}
	for _, c := range cases {
		if got := validityLevel(c.r); got != c.want {
			t.Errorf("validityLevel(%v) = %q, want %q", c.r, got, c.want)
		}
	}
}
