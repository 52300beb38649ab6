package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/datascopehq/datascope-cli/internal/dataset"
	"github.com/samber/lo"
)

// Missing-value strategies.
const (
	MissingMean   = "mean"
	MissingMedian = "median"
	MissingMode   = "mode"
	MissingDrop   = "drop"
	MissingFill   = "fill"
)

// Scaling methods.
const (
	ScaleStandard = "standard"
	ScaleMinMax   = "minmax"
)

// Encoding methods.
const (
	EncodeLabel  = "label"
	EncodeOneHot = "onehot"
)

// CleanOptions selects the transformation steps to run, in pipeline order:
// duplicates, outlier blanking, missing values, encoding, scaling,
// interaction features, feature selection.
type CleanOptions struct {
	DropDuplicates bool

	OutlierStrategy  string // "", mad, zscore, iqr, percentile
	OutlierThreshold float64

	MissingStrategy string // "", mean, median, mode, drop, fill
	FillValue       string

	Encode        string // "", label, onehot
	EncodeColumns []string

	Scale        string // "", standard, minmax
	ScaleColumns []string

	// Interactions appends pairwise products of the named numeric columns.
	Interactions []string

	// SelectTopK keeps only that many numeric features, ranked by |r| with
	// SelectTarget when one is named, otherwise by variance. The target and
	// non-numeric columns always survive.
	SelectTarget string
	SelectTopK   int

	Parse dataset.ParseOptions
}

// Change records one applied transformation for the change log.
type Change struct {
	Op     string `json:"op"`
	Detail string `json:"detail"`
}

// Clean applies the configured pipeline to a copy of the table and returns
// the cleaned copy with a change log. The input table is not modified.
func Clean(src *dataset.Table, opt CleanOptions) (*dataset.Table, []Change, error) {
	t := src.Clone()
	t.Detect(opt.Parse)
	var log []Change

	if opt.DropDuplicates {
		n := dropDuplicates(t)
		if n > 0 {
			t.Detect(opt.Parse)
		}
		log = append(log, Change{Op: "dedupe", Detail: fmt.Sprintf("removed %d duplicate rows", n)})
	}

	if opt.OutlierStrategy != "" {
		// snapshot first: cell writes invalidate the numeric cache
		type colVals struct {
			col  int
			vals []float64
			ok   []bool
		}
		var snaps []colVals
		for _, c := range t.NumericIndexes() {
			vals, ok := t.NumericValues(c)
			snaps = append(snaps, colVals{col: c, vals: vals, ok: ok})
		}
		blanked := 0
		for _, s := range snaps {
			rows, err := OutlierRows(s.vals, s.ok, opt.OutlierStrategy, opt.OutlierThreshold)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range rows {
				t.SetCell(r, s.col, "")
				blanked++
			}
		}
		t.Detect(opt.Parse)
		log = append(log, Change{Op: "outliers", Detail: fmt.Sprintf("%s: blanked %d outlier cells", opt.OutlierStrategy, blanked)})
	}

	if opt.MissingStrategy != "" {
		detail, err := handleMissing(t, opt)
		if err != nil {
			return nil, nil, err
		}
		t.Detect(opt.Parse)
		log = append(log, Change{Op: "missing", Detail: detail})
	}

	if opt.Encode != "" {
		detail, err := encode(t, opt)
		if err != nil {
			return nil, nil, err
		}
		t.Detect(opt.Parse)
		log = append(log, Change{Op: "encode", Detail: detail})
	}

	if opt.Scale != "" {
		detail, err := scale(t, opt)
		if err != nil {
			return nil, nil, err
		}
		t.Detect(opt.Parse)
		log = append(log, Change{Op: "scale", Detail: detail})
	}

	if len(opt.Interactions) > 0 {
		detail, err := interactions(t, opt)
		if err != nil {
			return nil, nil, err
		}
		t.Detect(opt.Parse)
		log = append(log, Change{Op: "interactions", Detail: detail})
	}

	if opt.SelectTopK > 0 {
		detail, err := selectFeatures(t, opt)
		if err != nil {
			return nil, nil, err
		}
		t.Detect(opt.Parse)
		log = append(log, Change{Op: "select", Detail: detail})
	}

	// the cleaned table is a complete dataset of its own
	t.TotalRows = t.NumRows()
	t.Truncated = false
	return t, log, nil
}

func dropDuplicates(t *dataset.Table) int {
	seen := make(map[string]bool, t.NumRows())
	var dups []int
	for i, row := range t.Rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			dups = append(dups, i)
			continue
		}
		seen[key] = true
	}
	t.DropRows(dups)
	return len(dups)
}

func handleMissing(t *dataset.Table, opt CleanOptions) (string, error) {
	switch opt.MissingStrategy {
	case MissingMean, MissingMedian:
		// compute every fill value before the first write
		type fill struct {
			col int
			v   float64
		}
		var plan []fill
		for _, c := range t.NumericIndexes() {
			present := t.NumericColumn(c)
			if len(present) == 0 {
				continue
			}
			d := Describe(present)
			v := d.Mean
			if opt.MissingStrategy == MissingMedian {
				v = d.Median
			}
			plan = append(plan, fill{col: c, v: v})
		}
		filled := 0
		for _, p := range plan {
			for r := 0; r < t.NumRows(); r++ {
				if t.IsMissing(r, p.col) {
					t.SetNumericCell(r, p.col, p.v)
					filled++
				}
			}
		}
		return fmt.Sprintf("%s imputation filled %d cells", opt.MissingStrategy, filled), nil
	case MissingMode:
		filled := 0
		for c := range t.Columns {
			mode := modeValue(t, c)
			if mode == "" {
				continue
			}
			for r := 0; r < t.NumRows(); r++ {
				if t.IsMissing(r, c) {
					t.SetCell(r, c, mode)
					filled++
				}
			}
		}
		return fmt.Sprintf("mode imputation filled %d cells", filled), nil
	case MissingDrop:
		var drop []int
		for r := 0; r < t.NumRows(); r++ {
			for c := range t.Columns {
				if t.IsMissing(r, c) {
					drop = append(drop, r)
					break
				}
			}
		}
		t.DropRows(drop)
		return fmt.Sprintf("dropped %d rows with missing values", len(drop)), nil
	case MissingFill:
		filled := 0
		for r := 0; r < t.NumRows(); r++ {
			for c := range t.Columns {
				if t.IsMissing(r, c) {
					t.SetCell(r, c, opt.FillValue)
					filled++
				}
			}
		}
		return fmt.Sprintf("filled %d cells with %q", filled, opt.FillValue), nil
	}
	return "", fmt.Errorf("unknown missing strategy %q (mean, median, mode, drop, fill)", opt.MissingStrategy)
}

func modeValue(t *dataset.Table, col int) string {
	counts := map[string]int{}
	for r := 0; r < t.NumRows(); r++ {
		v := strings.TrimSpace(t.Cell(r, col))
		if v != "" {
			counts[v]++
		}
	}
	best, bestN := "", 0
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

func encodeColumns(t *dataset.Table, opt CleanOptions) ([]int, error) {
	if len(opt.EncodeColumns) > 0 {
		var cols []int
		for _, name := range opt.EncodeColumns {
			idx := t.ColumnIndex(name)
			if idx < 0 {
				return nil, fmt.Errorf("encode column %q not found", name)
			}
			cols = append(cols, idx)
		}
		return cols, nil
	}
	var cols []int
	for i, c := range t.Columns {
		if c.Kind == dataset.KindCategorical {
			cols = append(cols, i)
		}
	}
	return cols, nil
}

func encode(t *dataset.Table, opt CleanOptions) (string, error) {
	cols, err := encodeColumns(t, opt)
	if err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return "no categorical columns to encode", nil
	}
	var names []string
	switch opt.Encode {
	case EncodeLabel:
		for _, c := range cols {
			levels := distinctValues(t, c)
			index := make(map[string]int, len(levels))
			for i, v := range levels {
				index[v] = i
			}
			for r := 0; r < t.NumRows(); r++ {
				v := strings.TrimSpace(t.Cell(r, c))
				if v == "" {
					continue
				}
				t.SetCell(r, c, strconv.Itoa(index[v]))
			}
			names = append(names, t.Columns[c].Name)
		}
		return fmt.Sprintf("label-encoded %s", strings.Join(names, ", ")), nil
	case EncodeOneHot:
		// iterate from the end so earlier indexes stay valid after drops
		sort.Sort(sort.Reverse(sort.IntSlice(cols)))
		for _, c := range cols {
			name := t.Columns[c].Name
			levels := distinctValues(t, c)
			for _, lv := range levels {
				vals := make([]string, t.NumRows())
				for r := 0; r < t.NumRows(); r++ {
					if strings.TrimSpace(t.Cell(r, c)) == lv {
						vals[r] = "1"
					} else {
						vals[r] = "0"
					}
				}
				t.AddColumn(name+"_"+lv, vals)
			}
			t.DropColumn(c)
			names = append(names, name)
		}
		return fmt.Sprintf("one-hot encoded %s", strings.Join(names, ", ")), nil
	}
	return "", fmt.Errorf("unknown encoding %q (label, onehot)", opt.Encode)
}

func distinctValues(t *dataset.Table, col int) []string {
	set := map[string]struct{}{}
	for r := 0; r < t.NumRows(); r++ {
		v := strings.TrimSpace(t.Cell(r, col))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	out := lo.Keys(set)
	sort.Strings(out)
	return out
}

func scale(t *dataset.Table, opt CleanOptions) (string, error) {
	if opt.Scale != ScaleStandard && opt.Scale != ScaleMinMax {
		return "", fmt.Errorf("unknown scaling %q (standard, minmax)", opt.Scale)
	}
	var cols []int
	if len(opt.ScaleColumns) > 0 {
		for _, name := range opt.ScaleColumns {
			idx := t.ColumnIndex(name)
			if idx < 0 {
				return "", fmt.Errorf("scale column %q not found", name)
			}
			cols = append(cols, idx)
		}
	} else {
		cols = t.NumericIndexes()
	}
	// snapshot first: cell writes invalidate the numeric cache
	type colScale struct {
		col  int
		vals []float64
		ok   []bool
		d    Desc
	}
	var snaps []colScale
	for _, c := range cols {
		vals, ok := t.NumericValues(c)
		present := t.NumericColumn(c)
		if len(present) == 0 {
			continue
		}
		snaps = append(snaps, colScale{col: c, vals: vals, ok: ok, d: Describe(present)})
	}
	var names []string
	for _, s := range snaps {
		for r := range s.vals {
			if !s.ok[r] {
				continue
			}
			switch opt.Scale {
			case ScaleStandard:
				if s.d.Std == 0 {
					continue
				}
				t.SetNumericCell(r, s.col, (s.vals[r]-s.d.Mean)/s.d.Std)
			case ScaleMinMax:
				span := s.d.Max - s.d.Min
				if span == 0 {
					continue
				}
				t.SetNumericCell(r, s.col, (s.vals[r]-s.d.Min)/span)
			}
		}
		names = append(names, t.Columns[s.col].Name)
	}
	return fmt.Sprintf("%s-scaled %s", opt.Scale, strings.Join(names, ", ")), nil
}

func interactions(t *dataset.Table, opt CleanOptions) (string, error) {
	var cols []int
	for _, name := range opt.Interactions {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return "", fmt.Errorf("interaction column %q not found", name)
		}
		if t.Columns[idx].Kind != dataset.KindNumeric {
			return "", fmt.Errorf("interaction column %q is %s, need numeric", name, t.Columns[idx].Kind)
		}
		cols = append(cols, idx)
	}
	if len(cols) < 2 {
		return "", fmt.Errorf("interactions need at least 2 numeric columns")
	}
	// snapshot first: AddColumn invalidates the numeric cache
	series := make([][]float64, len(cols))
	oks := make([][]bool, len(cols))
	for i, c := range cols {
		series[i], oks[i] = t.NumericValues(c)
	}
	var added []string
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			name := t.Columns[cols[i]].Name + "_x_" + t.Columns[cols[j]].Name
			vals := make([]string, t.NumRows())
			for r := 0; r < t.NumRows(); r++ {
				if oks[i][r] && oks[j][r] {
					vals[r] = strconv.FormatFloat(series[i][r]*series[j][r], 'g', -1, 64)
				}
			}
			t.AddColumn(name, vals)
			added = append(added, name)
		}
	}
	return fmt.Sprintf("added %s", strings.Join(added, ", ")), nil
}

func selectFeatures(t *dataset.Table, opt CleanOptions) (string, error) {
	ti := -1
	if opt.SelectTarget != "" {
		ti = t.ColumnIndex(opt.SelectTarget)
		if ti < 0 {
			return "", fmt.Errorf("target column %q not found", opt.SelectTarget)
		}
		if t.Columns[ti].Kind != dataset.KindNumeric {
			return "", fmt.Errorf("target column %q is %s, need numeric", opt.SelectTarget, t.Columns[ti].Kind)
		}
	}
	type scored struct {
		col   int
		score float64
	}
	var feats []scored
	for _, c := range t.NumericIndexes() {
		if c == ti {
			continue
		}
		var score float64
		if ti >= 0 {
			xs, ys := PairwiseComplete(t, c, ti)
			if len(xs) >= 2 {
				score = absF(Pearson(xs, ys))
			}
		} else {
			vals, ok := t.NumericValues(c)
			var present []float64
			for i, v := range vals {
				if ok[i] {
					present = append(present, v)
				}
			}
			score = sampleVariance(present)
		}
		feats = append(feats, scored{col: c, score: score})
	}
	sort.Slice(feats, func(i, j int) bool {
		if feats[i].score == feats[j].score {
			return t.Columns[feats[i].col].Name < t.Columns[feats[j].col].Name
		}
		return feats[i].score > feats[j].score
	})
	keep := map[int]bool{}
	if ti >= 0 {
		keep[ti] = true
	}
	kept := []string{}
	for i, f := range feats {
		if i >= opt.SelectTopK {
			break
		}
		keep[f.col] = true
		kept = append(kept, t.Columns[f.col].Name)
	}
	// drop unselected numeric columns, from the end to keep indexes valid
	numeric := t.NumericIndexes()
	sort.Sort(sort.Reverse(sort.IntSlice(numeric)))
	for _, c := range numeric {
		if !keep[c] {
			t.DropColumn(c)
		}
	}
	if ti < 0 {
		return fmt.Sprintf("kept top %d features by variance: %s", len(kept), strings.Join(kept, ", ")), nil
	}
	return fmt.Sprintf("kept top %d features by |r| with %s: %s", len(kept), opt.SelectTarget, strings.Join(kept, ", ")), nil
}
