package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Markdown renders a compact report suitable for prompts or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Rows > 0 {
		if r.Processed > 0 && r.Processed < r.Rows {
			b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.Rows, r.Processed))
		} else {
			b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
		}
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			if c.Stats != nil {
				s := c.Stats
				b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g, median %.4g", s.Min, s.Max, s.Mean, s.Std, s.Median))
			}
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			maxk := 6
			if len(keys) < maxk {
				maxk = len(keys)
			}
			for i := 0; i < maxk; i++ {
				m := g.Metrics[keys[i]]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", keys[i], m.Mean, m.Min, m.Max))
			}
		}
	}

	hasGCorr := false
	for _, g := range r.Groups {
		if len(g.CorrPairs) > 0 {
			hasGCorr = true
			break
		}
	}
	if hasGCorr {
		b.WriteString("\n[PER-GROUP CORRELATIONS]\n")
		for _, g := range r.Groups {
			if len(g.CorrPairs) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s:\n", g.Key))
			lim := 8
			if len(g.CorrPairs) < lim {
				lim = len(g.CorrPairs)
			}
			for i := 0; i < lim; i++ {
				p := g.CorrPairs[i]
				b.WriteString(fmt.Sprintf("  • %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
			}
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString(fmt.Sprintf("\n[CORRELATIONS] (%s)\n", r.Corr.Method))
		var pairs []PairCorr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, PairCorr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		maxp := 10
		if len(pairs) < maxp {
			maxp = len(pairs)
		}
		for i := 0; i < maxp; i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}

	if r.Reliability != nil {
		rel := r.Reliability
		b.WriteString("\n[RELIABILITY]\n")
		b.WriteString(fmt.Sprintf("Items: %s (n=%d complete cases)\n", strings.Join(rel.Items, ", "), rel.N))
		b.WriteString(fmt.Sprintf("Cronbach's alpha: %.3f (standardized %.3f) — %s\n", rel.Alpha, rel.StdAlpha, rel.Interpretation))
		if len(rel.AlphaIfDeleted) > 0 {
			items := make([]string, 0, len(rel.AlphaIfDeleted))
			for k := range rel.AlphaIfDeleted {
				items = append(items, k)
			}
			sort.Strings(items)
			for _, it := range items {
				b.WriteString(fmt.Sprintf("  • alpha if %s deleted: %.3f\n", it, rel.AlphaIfDeleted[it]))
			}
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
