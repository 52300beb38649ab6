package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseOptions controls locale-aware value parsing and unit handling.
type ParseOptions struct {
	// DecimalSeparator for numeric cells. If 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// Unit normalization converts values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "ug/L":"mg/L", "°F":"°C"}
}

// DefaultParseOptions returns the standard locale and unit settings.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		UnitNormalize: true,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
	}
}

// Detect infers each column's kind from its parsed cell contents (the
// predominant parsed type wins) and caches numeric values, applying unit
// normalization where the column header carried a convertible unit.
func (t *Table) Detect(po ParseOptions) {
	ncol := len(t.Columns)
	t.nums = make([][]float64, ncol)
	t.valid = make([][]bool, ncol)
	for j := 0; j < ncol; j++ {
		t.nums[j] = make([]float64, len(t.Rows))
		t.valid[j] = make([]bool, len(t.Rows))
		numCnt, dtCnt, txtCnt := 0, 0, 0
		unit := t.Columns[j].Unit
		for i := range t.Rows {
			v := strings.TrimSpace(t.Cell(i, j))
			t.nums[j][i] = math.NaN()
			if v == "" {
				continue
			}
			if strings.Contains(v, "%") && unit == "" {
				unit = "%"
			}
			if x, ok := ParseNumeric(v, po); ok {
				if po.UnitNormalize && unit != "" {
					if nx, nu, okc := normalizeUnit(x, unit, po); okc {
						x = nx
						t.Columns[j].Unit = nu
					}
				}
				numCnt++
				t.nums[j][i] = x
				t.valid[j][i] = true
				continue
			}
			if _, ok := ParseTimeMaybe(v); ok {
				dtCnt++
				continue
			}
			txtCnt++
		}
		if unit != "" && t.Columns[j].Unit == "" {
			t.Columns[j].Unit = unit
		}
		t.Columns[j].Kind = decideKind(t, j, numCnt, dtCnt, txtCnt)
	}
}

func decideKind(t *Table, col, numCnt, dtCnt, txtCnt int) string {
	switch {
	case numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0:
		return KindNumeric
	case dtCnt >= txtCnt && dtCnt > 0:
		return KindDatetime
	case txtCnt > 0:
		// Short repeated tokens are categories; long free text is text.
		distinct := make(map[string]struct{})
		for i := range t.Rows {
			v := strings.TrimSpace(t.Cell(i, col))
			if v == "" || len(v) > 64 {
				continue
			}
			distinct[v] = struct{}{}
		}
		if len(distinct) > 0 {
			return KindCategorical
		}
		return KindText
	default:
		return KindUnknown
	}
}

// ParseTimeMaybe parses common date and datetime layouts.
func ParseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumeric parses a numeric cell with locale awareness. Percent signs are
// stripped, thousands separators removed, and the decimal separator detected
// per value unless fixed by options.
func ParseNumeric(s string, po ParseOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, " ", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := po.DecimalSeparator
	thou := po.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func normalizeUnit(x float64, unit string, po ParseOptions) (float64, string, bool) {
	if po.UnitTargets == nil {
		return x, unit, false
	}
	target, ok := po.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

// SplitUnits separates a trailing unit annotation from a column header.
func SplitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
