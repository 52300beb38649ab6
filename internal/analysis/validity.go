package analysis

import (
	"fmt"
	"math"

	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// ValidityResult holds criterion-validity correlations of items against a
// criterion column.
type ValidityResult struct {
	Criterion string         `json:"criterion"`
	Items     []ItemValidity `json:"items"`
}

// ItemValidity is one item's correlation with the criterion.
type ItemValidity struct {
	Item  string  `json:"item"`
	R     float64 `json:"r"`
	Level string  `json:"level"`
}

// CriterionValidity correlates each item column with the criterion column
// on pairwise-complete cases and labels the strength of each association.
func CriterionValidity(t *dataset.Table, items []string, criterion string) (*ValidityResult, error) {
	ci := t.ColumnIndex(criterion)
	if ci < 0 {
		return nil, fmt.Errorf("criterion column %q not found", criterion)
	}
	if t.Columns[ci].Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("criterion column %q is %s, need numeric", criterion, t.Columns[ci].Kind)
	}
	res := &ValidityResult{Criterion: t.Columns[ci].Name}
	for _, it := range items {
		idx := t.ColumnIndex(it)
		if idx < 0 {
			return nil, fmt.Errorf("item column %q not found", it)
		}
		if idx == ci {
			continue
		}
		xs, ys := PairwiseComplete(t, idx, ci)
		r := 0.0
		if len(xs) >= 2 {
			r = Pearson(xs, ys)
		}
		res.Items = append(res.Items, ItemValidity{Item: t.Columns[idx].Name, R: r, Level: validityLevel(r)})
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("no item columns to correlate with %q", criterion)
	}
	return res, nil
}

func validityLevel(r float64) string {
	switch ar := math.Abs(r); {
	case ar >= 0.7:
		return "high"
	case ar >= 0.5:
		return "medium"
	case ar >= 0.3:
		return "low"
	default:
		return "weak"
	}
}
