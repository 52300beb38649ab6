// Package viz builds render-ready chart specifications from detected tables
// and turns them into standalone SVG documents. There is no pixel rasterizer;
// the SVG is the figure artifact.
package viz

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/datascopehq/datascope-cli/internal/analysis"
	"github.com/datascopehq/datascope-cli/internal/dataset"
)

// Chart types.
const (
	ChartBar       = "bar"
	ChartLine      = "line"
	ChartScatter   = "scatter"
	ChartHeatmap   = "heatmap"
	ChartPie       = "pie"
	ChartHistogram = "histogram"
	ChartBox       = "box"
)

// ChartTypes lists the supported chart types in display order.
func ChartTypes() []string {
	return []string{ChartBar, ChartLine, ChartScatter, ChartHeatmap, ChartPie, ChartHistogram, ChartBox}
}

// Style carries the visual preset applied to a rendered chart.
type Style struct {
	Name       string   `json:"name"`
	Palette    []string `json:"palette"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	DPI        int      `json:"dpi"`
	FontFamily string   `json:"font_family"`
	Background string   `json:"background"`
	GridColor  string   `json:"grid_color"`
	TextColor  string   `json:"text_color"`
}

// StylePreset returns one of the built-in presets. Unknown names fall back
// to academic.
func StylePreset(name string) Style {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "business":
		return Style{
			Name:       "business",
			Palette:    []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b"},
			Width:      960,
			Height:     540,
			DPI:        96,
			FontFamily: "Arial, sans-serif",
			Background: "#ffffff",
			GridColor:  "#d9d9d9",
			TextColor:  "#262626",
		}
	case "modern":
		return Style{
			Name:       "modern",
			Palette:    []string{"#6366f1", "#ec4899", "#14b8a6", "#f59e0b", "#8b5cf6", "#06b6d4"},
			Width:      900,
			Height:     560,
			DPI:        120,
			FontFamily: "Helvetica Neue, Helvetica, sans-serif",
			Background: "#fafafa",
			GridColor:  "#e5e7eb",
			TextColor:  "#111827",
		}
	default:
		return Style{
			Name:       "academic",
			Palette:    []string{"#4c72b0", "#dd8452", "#55a868", "#c44e52", "#8172b3", "#937860"},
			Width:      800,
			Height:     500,
			DPI:        150,
			FontFamily: "Georgia, 'Times New Roman', serif",
			Background: "#ffffff",
			GridColor:  "#cccccc",
			TextColor:  "#333333",
		}
	}
}

// Series is one plotted group. Bar and pie charts use Labels with Y values;
// line and scatter use X/Y pairs; histogram and box read raw values from Y.
type Series struct {
	Name   string    `json:"name,omitempty"`
	Labels []string  `json:"labels,omitempty"`
	X      []float64 `json:"x,omitempty"`
	Y      []float64 `json:"y,omitempty"`
}

// ChartSpec is the render-ready chart configuration.
type ChartSpec struct {
	Type         string      `json:"type"`
	Title        string      `json:"title,omitempty"`
	XLabel       string      `json:"x_label,omitempty"`
	YLabel       string      `json:"y_label,omitempty"`
	Series       []Series    `json:"series,omitempty"`
	Matrix       [][]float64 `json:"matrix,omitempty"`
	MatrixLabels []string    `json:"matrix_labels,omitempty"`
	Trendline    bool        `json:"trendline,omitempty"`
	Style        Style       `json:"style"`
}

// SpecJSON exports the render-ready configuration.
func SpecJSON(spec *ChartSpec) ([]byte, error) {
	return sonic.MarshalIndent(spec, "", "  ")
}

// SaveFigure renders the spec and writes <type>_<timestamp>.svg under dir,
// returning the written path.
func SaveFigure(dir string, spec *ChartSpec) (string, error) {
	svg, err := RenderSVG(spec)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create figures dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.svg", spec.Type, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		return "", fmt.Errorf("write figure: %w", err)
	}
	return path, nil
}

// Recommendation suggests a chart type for a table, with the columns that
// motivated it.
type Recommendation struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
	X      string `json:"x,omitempty"`
	Y      string `json:"y,omitempty"`
}

// Recommend inspects column kinds and proposes chart types, best fit first.
func Recommend(t *dataset.Table) []Recommendation {
	var numeric, categorical, datetime []string
	for _, c := range t.Columns {
		switch c.Kind {
		case dataset.KindNumeric:
			numeric = append(numeric, c.Name)
		case dataset.KindCategorical:
			categorical = append(categorical, c.Name)
		case dataset.KindDatetime:
			datetime = append(datetime, c.Name)
		}
	}

	var recs []Recommendation
	if len(numeric) >= 2 {
		recs = append(recs, Recommendation{
			Type: ChartScatter, X: numeric[0], Y: numeric[1],
			Reason: fmt.Sprintf("two numeric columns (%s, %s) show their relationship", numeric[0], numeric[1]),
		})
	}
	if len(datetime) >= 1 && len(numeric) >= 1 {
		recs = append(recs, Recommendation{
			Type: ChartLine, X: datetime[0], Y: numeric[0],
			Reason: fmt.Sprintf("%s over %s reveals the trend", numeric[0], datetime[0]),
		})
	}
	if len(categorical) >= 1 && len(numeric) >= 1 {
		recs = append(recs,
			Recommendation{
				Type: ChartBar, X: categorical[0], Y: numeric[0],
				Reason: fmt.Sprintf("%s compared across %s groups", numeric[0], categorical[0]),
			},
			Recommendation{
				Type: ChartBox, X: categorical[0], Y: numeric[0],
				Reason: fmt.Sprintf("spread of %s within each %s group", numeric[0], categorical[0]),
			})
	}
	if len(numeric) >= 1 {
		recs = append(recs, Recommendation{
			Type: ChartHistogram, X: numeric[0],
			Reason: fmt.Sprintf("distribution of %s", numeric[0]),
		})
	}
	if len(numeric) >= 3 {
		recs = append(recs, Recommendation{
			Type:   ChartHeatmap,
			Reason: fmt.Sprintf("%d numeric columns suit a correlation grid", len(numeric)),
		})
	}
	for _, c := range categorical {
		if n := distinctCount(t, c); n >= 2 && n <= 8 {
			recs = append(recs, Recommendation{
				Type: ChartPie, X: c,
				Reason: fmt.Sprintf("%s has %d categories, few enough for shares", c, n),
			})
			break
		}
	}
	return recs
}

func distinctCount(t *dataset.Table, col string) int {
	j := t.ColumnIndex(col)
	if j < 0 {
		return 0
	}
	seen := map[string]struct{}{}
	for i := 0; i < t.NumRows(); i++ {
		v := strings.TrimSpace(t.Cell(i, j))
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

// BuildSpec assembles a ChartSpec of the given type from table columns.
// x and y name columns where the type needs them; hue optionally splits
// scatter points or box groups by a categorical column.
func BuildSpec(t *dataset.Table, typ, x, y, hue string, style Style) (*ChartSpec, error) {
	spec := &ChartSpec{Type: typ, Style: style, Title: defaultTitle(typ, x, y)}
	switch typ {
	case ChartBar:
		return buildBar(spec, t, x, y)
	case ChartLine:
		return buildLine(spec, t, x, y)
	case ChartScatter:
		return buildScatter(spec, t, x, y, hue)
	case ChartHistogram:
		return buildHistogram(spec, t, firstNonEmpty(x, y))
	case ChartBox:
		return buildBox(spec, t, firstNonEmpty(hue, x), y)
	case ChartPie:
		return buildPie(spec, t, x, y)
	case ChartHeatmap:
		return buildHeatmap(spec, t)
	default:
		return nil, fmt.Errorf("unsupported chart type %q (supported: %s)", typ, strings.Join(ChartTypes(), ", "))
	}
}

func defaultTitle(typ, x, y string) string {
	switch {
	case x != "" && y != "":
		return fmt.Sprintf("%s by %s", y, x)
	case x != "":
		return x
	case y != "":
		return y
	default:
		return typ
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func numericColumn(t *dataset.Table, name string) ([]float64, []bool, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil, nil, fmt.Errorf("column %q not found", name)
	}
	if t.Columns[j].Kind != dataset.KindNumeric {
		return nil, nil, fmt.Errorf("column %q is %s, need numeric", name, t.Columns[j].Kind)
	}
	vals, ok := t.NumericValues(j)
	return vals, ok, nil
}

func buildBar(spec *ChartSpec, t *dataset.Table, x, y string) (*ChartSpec, error) {
	if x == "" || y == "" {
		return nil, fmt.Errorf("bar chart needs --x (categories) and --y (values)")
	}
	xi := t.ColumnIndex(x)
	if xi < 0 {
		return nil, fmt.Errorf("column %q not found", x)
	}
	vals, ok, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	labels, means := groupMeans(t, xi, vals, ok)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no data for bar chart %s by %s", y, x)
	}
	spec.XLabel, spec.YLabel = x, y
	spec.Series = []Series{{Name: y, Labels: labels, Y: means}}
	return spec, nil
}

// groupMeans averages vals per distinct label in column xi, preserving first
// appearance order.
func groupMeans(t *dataset.Table, xi int, vals []float64, ok []bool) ([]string, []float64) {
	order := []string{}
	sums := map[string]float64{}
	counts := map[string]int{}
	for i := 0; i < t.NumRows(); i++ {
		if i >= len(vals) || !ok[i] {
			continue
		}
		label := strings.TrimSpace(t.Cell(i, xi))
		if label == "" {
			continue
		}
		if _, seen := sums[label]; !seen {
			order = append(order, label)
		}
		sums[label] += vals[i]
		counts[label]++
	}
	means := make([]float64, len(order))
	for i, l := range order {
		means[i] = sums[l] / float64(counts[l])
	}
	return order, means
}

func buildLine(spec *ChartSpec, t *dataset.Table, x, y string) (*ChartSpec, error) {
	if y == "" {
		return nil, fmt.Errorf("line chart needs --y (values)")
	}
	yv, yok, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	s := Series{Name: y}
	if x != "" {
		xi := t.ColumnIndex(x)
		if xi < 0 {
			return nil, fmt.Errorf("column %q not found", x)
		}
		for i := 0; i < t.NumRows(); i++ {
			if !yok[i] {
				continue
			}
			xv, lbl, keep := lineX(t, i, xi)
			if !keep {
				continue
			}
			s.X = append(s.X, xv)
			s.Labels = append(s.Labels, lbl)
			s.Y = append(s.Y, yv[i])
		}
		spec.XLabel = x
	} else {
		for i := 0; i < t.NumRows(); i++ {
			if !yok[i] {
				continue
			}
			s.X = append(s.X, float64(i))
			s.Y = append(s.Y, yv[i])
		}
		spec.XLabel = "row"
	}
	if len(s.Y) == 0 {
		return nil, fmt.Errorf("no data for line chart of %s", y)
	}
	spec.YLabel = y
	spec.Series = []Series{s}
	return spec, nil
}

// lineX resolves the x position for a line point: datetime cells become unix
// seconds, numeric cells their value, anything else the row index.
func lineX(t *dataset.Table, row, col int) (float64, string, bool) {
	raw := strings.TrimSpace(t.Cell(row, col))
	if raw == "" {
		return 0, "", false
	}
	if ts, ok := dataset.ParseTimeMaybe(raw); ok {
		return float64(ts.Unix()), raw, true
	}
	if v, ok := dataset.ParseNumeric(raw, dataset.DefaultParseOptions()); ok {
		return v, raw, true
	}
	return float64(row), raw, true
}

func buildScatter(spec *ChartSpec, t *dataset.Table, x, y, hue string) (*ChartSpec, error) {
	if x == "" || y == "" {
		return nil, fmt.Errorf("scatter chart needs --x and --y numeric columns")
	}
	xv, xok, err := numericColumn(t, x)
	if err != nil {
		return nil, err
	}
	yv, yok, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	hi := -1
	if hue != "" {
		hi = t.ColumnIndex(hue)
		if hi < 0 {
			return nil, fmt.Errorf("column %q not found", hue)
		}
	}
	groups := map[string]*Series{}
	order := []string{}
	for i := 0; i < t.NumRows(); i++ {
		if !xok[i] || !yok[i] {
			continue
		}
		key := ""
		if hi >= 0 {
			key = strings.TrimSpace(t.Cell(i, hi))
		}
		s, seen := groups[key]
		if !seen {
			s = &Series{Name: key}
			groups[key] = s
			order = append(order, key)
		}
		s.X = append(s.X, xv[i])
		s.Y = append(s.Y, yv[i])
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no complete (%s, %s) pairs to plot", x, y)
	}
	spec.XLabel, spec.YLabel = x, y
	spec.Trendline = true
	for _, k := range order {
		spec.Series = append(spec.Series, *groups[k])
	}
	return spec, nil
}

func buildHistogram(spec *ChartSpec, t *dataset.Table, col string) (*ChartSpec, error) {
	if col == "" {
		return nil, fmt.Errorf("histogram needs a numeric column")
	}
	vals, ok, err := numericColumn(t, col)
	if err != nil {
		return nil, err
	}
	s := Series{Name: col}
	for i, v := range vals {
		if ok[i] {
			s.Y = append(s.Y, v)
		}
	}
	if len(s.Y) == 0 {
		return nil, fmt.Errorf("no values in %q to bin", col)
	}
	spec.Title = fmt.Sprintf("Distribution of %s", col)
	spec.XLabel, spec.YLabel = col, "count"
	spec.Series = []Series{s}
	return spec, nil
}

func buildBox(spec *ChartSpec, t *dataset.Table, group, y string) (*ChartSpec, error) {
	if y == "" {
		return nil, fmt.Errorf("box plot needs --y (values)")
	}
	vals, ok, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	spec.YLabel = y
	if group == "" {
		s := Series{Name: y}
		for i, v := range vals {
			if ok[i] {
				s.Y = append(s.Y, v)
			}
		}
		if len(s.Y) == 0 {
			return nil, fmt.Errorf("no values in %q to plot", y)
		}
		spec.Series = []Series{s}
		return spec, nil
	}
	gi := t.ColumnIndex(group)
	if gi < 0 {
		return nil, fmt.Errorf("column %q not found", group)
	}
	groups := map[string]*Series{}
	order := []string{}
	for i := 0; i < t.NumRows(); i++ {
		if !ok[i] {
			continue
		}
		key := strings.TrimSpace(t.Cell(i, gi))
		if key == "" {
			continue
		}
		s, seen := groups[key]
		if !seen {
			s = &Series{Name: key}
			groups[key] = s
			order = append(order, key)
		}
		s.Y = append(s.Y, vals[i])
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no groups in %q with values of %q", group, y)
	}
	spec.XLabel = group
	for _, k := range order {
		spec.Series = append(spec.Series, *groups[k])
	}
	return spec, nil
}

func buildPie(spec *ChartSpec, t *dataset.Table, x, y string) (*ChartSpec, error) {
	if x == "" {
		return nil, fmt.Errorf("pie chart needs --x (categories)")
	}
	xi := t.ColumnIndex(x)
	if xi < 0 {
		return nil, fmt.Errorf("column %q not found", x)
	}
	s := Series{Name: x}
	if y != "" {
		// Sum the value column per category.
		vals, ok, err := numericColumn(t, y)
		if err != nil {
			return nil, err
		}
		order := []string{}
		sums := map[string]float64{}
		for i := 0; i < t.NumRows(); i++ {
			if !ok[i] {
				continue
			}
			label := strings.TrimSpace(t.Cell(i, xi))
			if label == "" {
				continue
			}
			if _, seen := sums[label]; !seen {
				order = append(order, label)
			}
			sums[label] += vals[i]
		}
		for _, l := range order {
			s.Labels = append(s.Labels, l)
			s.Y = append(s.Y, sums[l])
		}
	} else {
		order := []string{}
		counts := map[string]int{}
		for i := 0; i < t.NumRows(); i++ {
			label := strings.TrimSpace(t.Cell(i, xi))
			if label == "" {
				continue
			}
			if _, seen := counts[label]; !seen {
				order = append(order, label)
			}
			counts[label]++
		}
		for _, l := range order {
			s.Labels = append(s.Labels, l)
			s.Y = append(s.Y, float64(counts[l]))
		}
	}
	if len(s.Labels) == 0 {
		return nil, fmt.Errorf("no categories in %q", x)
	}
	spec.Title = fmt.Sprintf("Share of %s", x)
	spec.Series = []Series{s}
	return spec, nil
}

func buildHeatmap(spec *ChartSpec, t *dataset.Table) (*ChartSpec, error) {
	m, err := analysis.Matrix(t, analysis.CorrPearson)
	if err != nil {
		return nil, err
	}
	if len(m.Columns) < 2 {
		return nil, fmt.Errorf("heatmap needs at least 2 numeric columns, have %d", len(m.Columns))
	}
	spec.Title = "Correlation matrix"
	spec.Matrix = m.Values
	spec.MatrixLabels = m.Columns
	return spec, nil
}
