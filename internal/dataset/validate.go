package dataset

import (
	"fmt"
	"strings"
)

// Validation reports basic dataset health before analysis.
type Validation struct {
	Valid         bool              `json:"valid"`
	Rows          int               `json:"rows"`
	Cols          int               `json:"cols"`
	Kinds         map[string]string `json:"kinds"`
	MissingCounts map[string]int    `json:"missing_counts"`
	Issues        []string          `json:"issues,omitempty"`
}

// Validate inspects a detected table and collects blocking and advisory
// issues: empty dataset, duplicate column names, columns over 80% missing,
// and the absence of any numeric column.
func Validate(t *Table) *Validation {
	v := &Validation{
		Rows:          t.NumRows(),
		Cols:          t.NumCols(),
		Kinds:         make(map[string]string, t.NumCols()),
		MissingCounts: make(map[string]int, t.NumCols()),
	}
	if t.NumRows() == 0 || t.NumCols() == 0 {
		v.Issues = append(v.Issues, "dataset is empty")
		return v
	}

	seen := map[string]string{}
	for _, c := range t.Columns {
		key := strings.ToLower(c.Name)
		if first, ok := seen[key]; ok {
			v.Issues = append(v.Issues, fmt.Sprintf("duplicate column name: %s", first))
		} else {
			seen[key] = c.Name
		}
	}

	numeric := 0
	for j, c := range t.Columns {
		v.Kinds[c.Name] = c.Kind
		miss := t.MissingCount(j)
		v.MissingCounts[c.Name] = miss
		pct := float64(miss) * 100.0 / float64(t.NumRows())
		if pct > 80 {
			v.Issues = append(v.Issues, fmt.Sprintf("column %s is %.1f%% missing", c.Name, pct))
		}
		if c.Kind == KindNumeric {
			numeric++
		}
	}
	if numeric == 0 {
		v.Issues = append(v.Issues, "no numeric columns detected")
	}

	v.Valid = len(v.Issues) == 0
	return v
}
