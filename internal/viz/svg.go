package viz

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/datascopehq/datascope-cli/internal/analysis"
)

const svgSkeleton = `<svg xmlns="http://www.w3.org/2000/svg" width="{{width}}" height="{{height}}" viewBox="0 0 {{width}} {{height}}" font-family="{{font}}">
<rect width="{{width}}" height="{{height}}" fill="{{background}}"/>
<text x="{{titleX}}" y="30" text-anchor="middle" font-size="17" font-weight="bold" fill="{{text}}">{{title}}</text>
{{body}}</svg>
`

// RenderSVG turns a chart spec into a standalone SVG document.
func RenderSVG(spec *ChartSpec) (string, error) {
	if spec == nil {
		return "", fmt.Errorf("nil chart spec")
	}
	st := normalizeStyle(spec.Style)
	var body string
	var err error
	switch spec.Type {
	case ChartBar:
		body, err = renderBar(spec, st)
	case ChartLine:
		body, err = renderLine(spec, st)
	case ChartScatter:
		body, err = renderScatter(spec, st)
	case ChartHistogram:
		body, err = renderHistogram(spec, st)
	case ChartBox:
		body, err = renderBox(spec, st)
	case ChartPie:
		body, err = renderPie(spec, st)
	case ChartHeatmap:
		body, err = renderHeatmap(spec, st)
	default:
		return "", fmt.Errorf("unsupported chart type %q (supported: %s)", spec.Type, strings.Join(ChartTypes(), ", "))
	}
	if err != nil {
		return "", err
	}
	t := fasttemplate.New(svgSkeleton, "{{", "}}")
	return t.ExecuteString(map[string]interface{}{
		"width":      strconv.Itoa(st.Width),
		"height":     strconv.Itoa(st.Height),
		"font":       xmlEscape(st.FontFamily),
		"background": st.Background,
		"text":       st.TextColor,
		"titleX":     strconv.Itoa(st.Width / 2),
		"title":      xmlEscape(spec.Title),
		"body":       body,
	}), nil
}

// normalizeStyle fills in missing style fields from the named preset, so
// specs decoded from JSON with a bare style name still render.
func normalizeStyle(s Style) Style {
	p := StylePreset(s.Name)
	if s.Width <= 0 {
		s.Width = p.Width
	}
	if s.Height <= 0 {
		s.Height = p.Height
	}
	if s.DPI <= 0 {
		s.DPI = p.DPI
	}
	if len(s.Palette) == 0 {
		s.Palette = p.Palette
	}
	if s.FontFamily == "" {
		s.FontFamily = p.FontFamily
	}
	if s.Background == "" {
		s.Background = p.Background
	}
	if s.GridColor == "" {
		s.GridColor = p.GridColor
	}
	if s.TextColor == "" {
		s.TextColor = p.TextColor
	}
	return s
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;",
)

func xmlEscape(s string) string { return xmlEscaper.Replace(s) }

func truncLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// plotArea is the data region inside the margins.
type plotArea struct{ x0, y0, x1, y1 float64 }

func newPlotArea(st Style) plotArea {
	return plotArea{x0: 72, y0: 50, x1: float64(st.Width) - 28, y1: float64(st.Height) - 58}
}

func (p plotArea) w() float64 { return p.x1 - p.x0 }
func (p plotArea) h() float64 { return p.y1 - p.y0 }

// scale maps a data range onto pixels.
type scale struct{ min, max float64 }

func newScale(vals []float64) scale {
	sc := scale{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range vals {
		if v < sc.min {
			sc.min = v
		}
		if v > sc.max {
			sc.max = v
		}
	}
	if sc.min > sc.max {
		return scale{0, 1}
	}
	if sc.min == sc.max {
		sc.min -= 1
		sc.max += 1
	}
	return sc
}

// withZero extends the scale to include the zero baseline.
func (s scale) withZero() scale {
	if s.min > 0 {
		s.min = 0
	}
	if s.max < 0 {
		s.max = 0
	}
	return s
}

func (s scale) norm(v float64) float64 { return (v - s.min) / (s.max - s.min) }

func (p plotArea) sx(sc scale, v float64) float64 { return p.x0 + sc.norm(v)*p.w() }
func (p plotArea) sy(sc scale, v float64) float64 { return p.y1 - sc.norm(v)*p.h() }

func fmtF(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func fmtNum(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e7 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch frac := raw / mag; {
	case frac <= 1:
		return mag
	case frac <= 2:
		return 2 * mag
	case frac <= 5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func ticks(sc scale, n int) []float64 {
	span := sc.max - sc.min
	if span <= 0 || n < 2 {
		return []float64{sc.min}
	}
	step := niceStep(span / float64(n))
	start := math.Ceil(sc.min/step) * step
	var out []float64
	for v := start; v <= sc.max+step*1e-6; v += step {
		out = append(out, v)
	}
	return out
}

// writeFrame draws the axis lines and the axis titles.
func writeFrame(b *strings.Builder, p plotArea, st Style, xLabel, yLabel string) {
	fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
		fmtF(p.x0), fmtF(p.y1), fmtF(p.x1), fmtF(p.y1), st.TextColor)
	fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
		fmtF(p.x0), fmtF(p.y0), fmtF(p.x0), fmtF(p.y1), st.TextColor)
	if xLabel != "" {
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" font-size="12" fill="%s">%s</text>`+"\n",
			fmtF((p.x0+p.x1)/2), fmtF(p.y1+40), st.TextColor, xmlEscape(xLabel))
	}
	if yLabel != "" {
		fmt.Fprintf(b, `<text x="16" y="%s" text-anchor="middle" font-size="12" fill="%s" transform="rotate(-90 16 %s)">%s</text>`+"\n",
			fmtF((p.y0+p.y1)/2), st.TextColor, fmtF((p.y0+p.y1)/2), xmlEscape(yLabel))
	}
}

// writeYTicks draws horizontal gridlines with value labels.
func writeYTicks(b *strings.Builder, p plotArea, st Style, sc scale) {
	for _, v := range ticks(sc, 5) {
		y := p.sy(sc, v)
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-dasharray="3,3"/>`+"\n",
			fmtF(p.x0), fmtF(y), fmtF(p.x1), fmtF(y), st.GridColor)
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" font-size="10" fill="%s">%s</text>`+"\n",
			fmtF(p.x0-6), fmtF(y+3.5), st.TextColor, fmtNum(v))
	}
}

func writeXTicks(b *strings.Builder, p plotArea, st Style, sc scale) {
	for _, v := range ticks(sc, 6) {
		x := p.sx(sc, v)
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
			fmtF(x), fmtF(p.y1), fmtF(x), fmtF(p.y1+4), st.TextColor)
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%s</text>`+"\n",
			fmtF(x), fmtF(p.y1+16), st.TextColor, fmtNum(v))
	}
}

func renderBar(spec *ChartSpec, st Style) (string, error) {
	if len(spec.Series) == 0 || len(spec.Series[0].Y) == 0 {
		return "", fmt.Errorf("bar chart has no data")
	}
	s := spec.Series[0]
	p := newPlotArea(st)
	sc := newScale(s.Y).withZero()

	var b strings.Builder
	writeYTicks(&b, p, st, sc)
	band := p.w() / float64(len(s.Y))
	barW := band * 0.6
	zero := p.sy(sc, 0)
	labelMax := 12
	if len(s.Y) > 8 {
		labelMax = 8
	}
	for i, v := range s.Y {
		x := p.x0 + band*float64(i) + (band-barW)/2
		y := p.sy(sc, v)
		top, h := y, zero-y
		if v < 0 {
			top, h = zero, y-zero
		}
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			fmtF(x), fmtF(top), fmtF(barW), fmtF(h), st.Palette[0])
		if i < len(s.Labels) {
			fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%s</text>`+"\n",
				fmtF(x+barW/2), fmtF(p.y1+16), st.TextColor, xmlEscape(truncLabel(s.Labels[i], labelMax)))
		}
	}
	writeFrame(&b, p, st, spec.XLabel, spec.YLabel)
	return b.String(), nil
}

func renderLine(spec *ChartSpec, st Style) (string, error) {
	if len(spec.Series) == 0 || len(spec.Series[0].Y) == 0 {
		return "", fmt.Errorf("line chart has no data")
	}
	s := spec.Series[0]
	type pt struct {
		x, y float64
		lbl  string
	}
	pts := make([]pt, 0, len(s.Y))
	for i := range s.Y {
		x := float64(i)
		if i < len(s.X) {
			x = s.X[i]
		}
		lbl := ""
		if i < len(s.Labels) {
			lbl = s.Labels[i]
		}
		pts = append(pts, pt{x, s.Y[i], lbl})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, q := range pts {
		xs[i], ys[i] = q.x, q.y
	}
	p := newPlotArea(st)
	xsc, ysc := newScale(xs), newScale(ys)

	var b strings.Builder
	writeYTicks(&b, p, st, ysc)
	if pts[0].lbl != "" {
		// Labelled x values (dates): tick the first, middle and last point.
		for _, i := range []int{0, len(pts) / 2, len(pts) - 1} {
			x := p.sx(xsc, pts[i].x)
			fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%s</text>`+"\n",
				fmtF(x), fmtF(p.y1+16), st.TextColor, xmlEscape(truncLabel(pts[i].lbl, 12)))
		}
	} else {
		writeXTicks(&b, p, st, xsc)
	}

	var poly strings.Builder
	for i, q := range pts {
		if i > 0 {
			poly.WriteByte(' ')
		}
		fmt.Fprintf(&poly, "%s,%s", fmtF(p.sx(xsc, q.x)), fmtF(p.sy(ysc, q.y)))
	}
	fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`+"\n", st.Palette[0], poly.String())
	for _, q := range pts {
		fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="3" fill="%s"/>`+"\n",
			fmtF(p.sx(xsc, q.x)), fmtF(p.sy(ysc, q.y)), st.Palette[0])
	}
	writeFrame(&b, p, st, spec.XLabel, spec.YLabel)
	return b.String(), nil
}

func renderScatter(spec *ChartSpec, st Style) (string, error) {
	var xs, ys []float64
	for _, s := range spec.Series {
		xs = append(xs, s.X...)
		ys = append(ys, s.Y...)
	}
	if len(xs) == 0 {
		return "", fmt.Errorf("scatter chart has no data")
	}
	p := newPlotArea(st)
	xsc, ysc := newScale(xs), newScale(ys)

	var b strings.Builder
	writeYTicks(&b, p, st, ysc)
	writeXTicks(&b, p, st, xsc)
	for si, s := range spec.Series {
		color := st.Palette[si%len(st.Palette)]
		for i := range s.X {
			if i >= len(s.Y) {
				break
			}
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="3.5" fill="%s" fill-opacity="0.8"/>`+"\n",
				fmtF(p.sx(xsc, s.X[i])), fmtF(p.sy(ysc, s.Y[i])), color)
		}
	}
	if spec.Trendline {
		if slope, icept, ok := leastSquares(xs, ys); ok {
			y0 := slope*xsc.min + icept
			y1 := slope*xsc.max + icept
			fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1.5" stroke-dasharray="6,4"/>`+"\n",
				fmtF(p.sx(xsc, xsc.min)), fmtF(p.sy(ysc, y0)),
				fmtF(p.sx(xsc, xsc.max)), fmtF(p.sy(ysc, y1)), st.TextColor)
		}
	}
	if len(spec.Series) > 1 || (len(spec.Series) == 1 && spec.Series[0].Name != "") {
		writeLegend(&b, p, st, spec.Series)
	}
	writeFrame(&b, p, st, spec.XLabel, spec.YLabel)
	return b.String(), nil
}

func writeLegend(b *strings.Builder, p plotArea, st Style, series []Series) {
	x := p.x1 - 120
	y := p.y0 + 8
	for i, s := range series {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("series %d", i+1)
		}
		fmt.Fprintf(b, `<rect x="%s" y="%s" width="10" height="10" fill="%s"/>`+"\n",
			fmtF(x), fmtF(y), st.Palette[i%len(st.Palette)])
		fmt.Fprintf(b, `<text x="%s" y="%s" font-size="11" fill="%s">%s</text>`+"\n",
			fmtF(x+14), fmtF(y+9), st.TextColor, xmlEscape(truncLabel(name, 14)))
		y += 16
	}
}

// leastSquares fits y = slope*x + intercept.
func leastSquares(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, 0, false
	}
	var sx, sy, sxx, sxy float64
	for i := 0; i < n; i++ {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		sxy += xs[i] * ys[i]
	}
	den := float64(n)*sxx - sx*sx
	if den == 0 {
		return 0, 0, false
	}
	slope = (float64(n)*sxy - sx*sy) / den
	intercept = (sy - slope*sx) / float64(n)
	return slope, intercept, true
}

func renderHistogram(spec *ChartSpec, st Style) (string, error) {
	if len(spec.Series) == 0 || len(spec.Series[0].Y) == 0 {
		return "", fmt.Errorf("histogram has no data")
	}
	vals := spec.Series[0].Y
	vsc := newScale(vals)
	nbins := int(math.Ceil(1 + math.Log2(float64(len(vals)))))
	if nbins < 4 {
		nbins = 4
	}
	if nbins > 20 {
		nbins = 20
	}
	width := (vsc.max - vsc.min) / float64(nbins)
	counts := make([]float64, nbins)
	for _, v := range vals {
		i := int((v - vsc.min) / width)
		if i >= nbins {
			i = nbins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}

	p := newPlotArea(st)
	csc := newScale(counts).withZero()
	var b strings.Builder
	writeYTicks(&b, p, st, csc)
	writeXTicks(&b, p, st, vsc)
	for i, c := range counts {
		x0 := p.sx(vsc, vsc.min+width*float64(i))
		x1 := p.sx(vsc, vsc.min+width*float64(i+1))
		y := p.sy(csc, c)
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s"/>`+"\n",
			fmtF(x0), fmtF(y), fmtF(x1-x0-1), fmtF(p.y1-y), st.Palette[0], st.Background)
	}
	writeFrame(&b, p, st, spec.XLabel, spec.YLabel)
	return b.String(), nil
}

func renderBox(spec *ChartSpec, st Style) (string, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("box plot has no data")
	}
	var all []float64
	for _, s := range spec.Series {
		all = append(all, s.Y...)
	}
	if len(all) == 0 {
		return "", fmt.Errorf("box plot has no data")
	}
	p := newPlotArea(st)
	sc := newScale(all)
	var b strings.Builder
	writeYTicks(&b, p, st, sc)

	band := p.w() / float64(len(spec.Series))
	boxW := band * 0.5
	for i, s := range spec.Series {
		if len(s.Y) == 0 {
			continue
		}
		d := analysis.Describe(s.Y)
		cx := p.x0 + band*float64(i) + band/2
		color := st.Palette[i%len(st.Palette)]
		yMin, yMax := p.sy(sc, d.Min), p.sy(sc, d.Max)
		yQ1, yQ3 := p.sy(sc, d.Q1), p.sy(sc, d.Q3)
		yMed := p.sy(sc, d.Median)

		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
			fmtF(cx), fmtF(yMax), fmtF(cx), fmtF(yMin), st.TextColor)
		for _, wy := range []float64{yMin, yMax} {
			fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
				fmtF(cx-boxW/4), fmtF(wy), fmtF(cx+boxW/4), fmtF(wy), st.TextColor)
		}
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" fill-opacity="0.65" stroke="%s"/>`+"\n",
			fmtF(cx-boxW/2), fmtF(yQ3), fmtF(boxW), fmtF(yQ1-yQ3), color, st.TextColor)
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`+"\n",
			fmtF(cx-boxW/2), fmtF(yMed), fmtF(cx+boxW/2), fmtF(yMed), st.TextColor)
		if s.Name != "" {
			fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%s</text>`+"\n",
				fmtF(cx), fmtF(p.y1+16), st.TextColor, xmlEscape(truncLabel(s.Name, 12)))
		}
	}
	writeFrame(&b, p, st, spec.XLabel, spec.YLabel)
	return b.String(), nil
}

func renderPie(spec *ChartSpec, st Style) (string, error) {
	if len(spec.Series) == 0 || len(spec.Series[0].Y) == 0 {
		return "", fmt.Errorf("pie chart has no data")
	}
	s := spec.Series[0]
	total := 0.0
	for _, v := range s.Y {
		if v > 0 {
			total += v
		}
	}
	if total == 0 {
		return "", fmt.Errorf("pie chart values sum to zero")
	}
	p := newPlotArea(st)
	cx := p.x0 + p.w()*0.38
	cy := (p.y0 + p.y1) / 2
	r := math.Min(p.w()*0.38, p.h()/2) - 8

	var b strings.Builder
	angle := -math.Pi / 2
	lx := p.x0 + p.w()*0.78
	ly := p.y0 + 10
	for i, v := range s.Y {
		if v <= 0 {
			continue
		}
		frac := v / total
		color := st.Palette[i%len(st.Palette)]
		label := ""
		if i < len(s.Labels) {
			label = s.Labels[i]
		}
		if frac >= 0.999 {
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n", fmtF(cx), fmtF(cy), fmtF(r), color)
		} else {
			end := angle + 2*math.Pi*frac
			large := 0
			if frac > 0.5 {
				large = 1
			}
			x1, y1 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
			x2, y2 := cx+r*math.Cos(end), cy+r*math.Sin(end)
			fmt.Fprintf(&b, `<path d="M %s %s L %s %s A %s %s 0 %d 1 %s %s Z" fill="%s" stroke="%s"/>`+"\n",
				fmtF(cx), fmtF(cy), fmtF(x1), fmtF(y1), fmtF(r), fmtF(r), large, fmtF(x2), fmtF(y2), color, st.Background)
			angle = end
		}
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="10" height="10" fill="%s"/>`+"\n", fmtF(lx), fmtF(ly), color)
		fmt.Fprintf(&b, `<text x="%s" y="%s" font-size="11" fill="%s">%s (%.1f%%)</text>`+"\n",
			fmtF(lx+14), fmtF(ly+9), st.TextColor, xmlEscape(truncLabel(label, 14)), frac*100)
		ly += 16
	}
	return b.String(), nil
}

func renderHeatmap(spec *ChartSpec, st Style) (string, error) {
	n := len(spec.MatrixLabels)
	if n == 0 || len(spec.Matrix) != n {
		return "", fmt.Errorf("heatmap needs a square matrix with labels")
	}
	p := newPlotArea(st)
	cell := math.Min(p.w()/float64(n), p.h()/float64(n))
	ox := p.x0 + (p.w()-cell*float64(n))/2
	oy := p.y0

	var b strings.Builder
	for i := 0; i < n; i++ {
		// Row label on the left, column label above.
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="end" font-size="10" fill="%s">%s</text>`+"\n",
			fmtF(ox-6), fmtF(oy+cell*float64(i)+cell/2+3.5), st.TextColor, xmlEscape(truncLabel(spec.MatrixLabels[i], 10)))
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%s</text>`+"\n",
			fmtF(ox+cell*float64(i)+cell/2), fmtF(oy-6), st.TextColor, xmlEscape(truncLabel(spec.MatrixLabels[i], 8)))
		for j := 0; j < n; j++ {
			if j >= len(spec.Matrix[i]) {
				continue
			}
			v := spec.Matrix[i][j]
			x := ox + cell*float64(j)
			y := oy + cell*float64(i)
			fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s"/>`+"\n",
				fmtF(x), fmtF(y), fmtF(cell), fmtF(cell), divergingColor(v), st.Background)
			textColor := st.TextColor
			if math.Abs(v) > 0.6 {
				textColor = "#ffffff"
			}
			fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="10" fill="%s">%.2f</text>`+"\n",
				fmtF(x+cell/2), fmtF(y+cell/2+3.5), textColor, v)
		}
	}
	return b.String(), nil
}

// divergingColor maps [-1, 1] onto a blue-white-red ramp.
func divergingColor(v float64) string {
	if math.IsNaN(v) {
		return "#e0e0e0"
	}
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	if v < 0 {
		return lerpColor(0xf7f7f7, 0x2166ac, -v)
	}
	return lerpColor(0xf7f7f7, 0xb2182b, v)
}

func lerpColor(a, b int, t float64) string {
	ar, ag, ab := (a>>16)&0xff, (a>>8)&0xff, a&0xff
	br, bg, bb := (b>>16)&0xff, (b>>8)&0xff, b&0xff
	r := int(float64(ar) + t*float64(br-ar))
	g := int(float64(ag) + t*float64(bg-ag))
	bl := int(float64(ab) + t*float64(bb-ab))
	return fmt.Sprintf("#%02x%02x%02x", r, g, bl)
}
