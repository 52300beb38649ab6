package analysis

import (
	"testing"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	if got := Pearson(x, []float64{2, 4, 6, 8, 10}); !closeTo(got, 1, 1e-12) {
		t.Fatalf("perfect positive = %v", got)
	}
	if got := Pearson(x, []float64{10, 8, 6, 4, 2}); !closeTo(got, -1, 1e-12) {
		t.Fatalf("perfect negative = %v", got)
	}
	if got := Pearson(x, []float64{3, 3, 3, 3, 3}); got != 0 {
		t.Fatalf("constant series = %v", got)
	}
	if got := Pearson(x, []float64{1, 2}); got != 0 {
		t.Fatalf("length mismatch = %v", got)
	}
}

func TestSpearmanMonotonic(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 8, 27, 64, 125} // nonlinear but monotonic
	if got := Spearman(x, y); !closeTo(got, 1, 1e-12) {
		t.Fatalf("spearman = %v, want 1", got)
	}
	if p := Pearson(x, y); p >= 1-1e-9 {
		t.Fatalf("pearson = %v, expected below 1 for the curve", p)
	}
}

func TestKendallTau(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 2, 3, 5, 4} // one discordant pair
	if got := KendallTau(x, y); !closeTo(got, 0.8, 1e-12) {
		t.Fatalf("tau = %v, want 0.8", got)
	}
	if got := KendallTau(x, x); !closeTo(got, 1, 1e-12) {
		t.Fatalf("self tau = %v", got)
	}
}

func TestMatrixSampleTable(t *testing.T) {
	m, err := Matrix(dataset.Sample(), CorrPearson)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	if m.Method != CorrPearson {
		t.Fatalf("method = %q", m.Method)
	}
	want := []string{"age", "income", "spend"}
	if len(m.Columns) != 3 {
		t.Fatalf("columns = %v", m.Columns)
	}
	for i, c := range m.Columns {
		if c != want[i] {
			t.Fatalf("columns = %v", m.Columns)
		}
	}
	for i := range m.Values {
		if m.Values[i][i] != 1 {
			t.Fatalf("diagonal[%d] = %v", i, m.Values[i][i])
		}
		for j := range m.Values {
			if m.Values[i][j] != m.Values[j][i] {
				t.Fatalf("matrix not symmetric at %d,%d", i, j)
			}
		}
	}
	if m.Values[0][1] < 0.97 {
		t.Fatalf("age~income r = %v, want strongly positive", m.Values[0][1])
	}
}

func TestMatrixErrors(t *testing.T) {
	one := dataset.New("one", []string{"a", "b"})
	one.AppendRow([]string{"1", "x"})
	one.AppendRow([]string{"2", "y"})
	one.Detect(dataset.DefaultParseOptions())
	if _, err := Matrix(one, CorrPearson); err == nil {
		t.Fatal("want error for a single numeric column")
	}
	if _, err := Matrix(dataset.Sample(), "tetrachoric"); err == nil {
		t.Fatal("want error for an unknown method")
	}
}

func TestStrongPairs(t *testing.T) {
	m := &CorrMatrix{
		Columns: []string{"a", "b", "c"},
		Values: [][]float64{
			{1, 0.9, 0.2},
			{0.9, 1, -0.7},
			{0.2, -0.7, 1},
		},
	}
	pairs := m.StrongPairs(0.6)
	if len(pairs) != 2 {
		t.Fatalf("pairs = %+v", pairs)
	}
	if pairs[0].A != "a" || pairs[0].B != "b" || pairs[0].R != 0.9 {
		t.Fatalf("first pair = %+v", pairs[0])
	}
	if pairs[1].A != "b" || pairs[1].B != "c" || pairs[1].R != -0.7 {
		t.Fatalf("second pair = %+v", pairs[1])
	}
}

func TestClampR(t *testing.T) {
	if got := clampR(1.0000001); got != 1 {
		t.Fatalf("clamp high = %v", got)
	}
	if got := clampR(-1.5); got != -1 {
		t.Fatalf("clamp low = %v", got)
	}
}
