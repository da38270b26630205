package ghm

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"regexp"
	"strings"

	"github.com/LC-Sat/web-application-online/pkg/axis"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	ErrNoSeries      = errors.New("no y series selected")
	ErrUnknownSeries = errors.New("unknown field")
	ErrNotEnoughData = errors.New("not enough data to draw a chart")
	ErrBadStyle      = errors.New("invalid series style")
)

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

const (
	panelWidth  = 800
	panelHeight = 260
)

// ChartRequest describes one chart drawn from the chart form.
type ChartRequest struct {
	X         string
	Y         []string
	Title     string
	XLabel    string
	YLabel    string
	LineWidth float64
	// Styles overrides the catalog color, point and line of a series.
	Styles map[string]SeriesStyle
}

// SeriesStyle is a per-request override, empty values keep the catalog's.
type SeriesStyle struct {
	Color string
	Point string
	Line  string
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// styled applies the request override of f, if any.
func (cr *ChartRenderer) styled(req ChartRequest, f Field) (Field, error) {
	st, ok := req.Styles[f.Name]
	if !ok {
		return f, nil
	}
	if st.Color != "" {
		if !hexColor.MatchString(st.Color) {
			return f, fmt.Errorf("%w: color %q of %s", ErrBadStyle, st.Color, f.Name)
		}
		f.Color = st.Color
	}
	if st.Point != "" {
		if !contains(cr.Catalog.PointsType, st.Point) {
			return f, fmt.Errorf("%w: point %q of %s", ErrBadStyle, st.Point, f.Name)
		}
		f.Point = st.Point
	}
	if st.Line != "" {
		if !contains(cr.Catalog.LinesType, st.Line) {
			return f, fmt.Errorf("%w: line %q of %s", ErrBadStyle, st.Line, f.Name)
		}
		f.Line = st.Line
	}
	return f, nil
}

// ChartRenderer draws the selected series as vertically stacked panels
// sharing the X axis.
type ChartRenderer struct {
	Catalog *Catalog
}

// Plan resolves the request against the catalog. Y series equal to the X
// field are dropped, they can not be plotted against themselves.
func (cr *ChartRenderer) Plan(req ChartRequest) (Field, []Field, error) {
	x, ok := cr.Catalog.Lookup(req.X)
	if !ok {
		return Field{}, nil, fmt.Errorf("%w: %q", ErrUnknownSeries, req.X)
	}
	var ys []Field
	for _, name := range req.Y {
		if name == req.X {
			continue
		}
		f, ok := cr.Catalog.Lookup(name)
		if !ok || f.Name == axis.Time {
			return Field{}, nil, fmt.Errorf("%w: %q", ErrUnknownSeries, name)
		}
		f, err := cr.styled(req, f)
		if err != nil {
			return Field{}, nil, err
		}
		ys = append(ys, f)
	}
	if len(ys) == 0 {
		return Field{}, nil, ErrNoSeries
	}
	return x, ys, nil
}

func (cr *ChartRenderer) label(f Field) string {
	return fmt.Sprintf("%s (%s %s)", cr.Catalog.FieldLabel(f), cr.Catalog.Text("in"), f.Unit)
}

// Title returns the request title or builds one from the selected fields.
func (cr *ChartRenderer) Title(req ChartRequest, x Field, ys []Field) string {
	if req.Title != "" {
		return req.Title
	}
	names := make([]string, len(ys))
	for i, f := range ys {
		names[i] = cr.Catalog.FieldLabel(f)
	}
	return fmt.Sprintf("%s %s %s.", strings.Join(names, ", "), cr.Catalog.Text("dependingOn"), cr.Catalog.FieldLabel(x))
}

// xValues returns the abscissa of every entry. Time is the offset in
// seconds from the first entry, or the row index times the recording
// frequency when entries carry no timestamp.
func (cr *ChartRenderer) xValues(data []Entry, x Field) ([]float64, []bool) {
	xs := make([]float64, len(data))
	ok := make([]bool, len(data))
	var t0 float64
	for i, e := range data {
		if x.Name != axis.Time {
			xs[i], ok[i] = e.Float(x.Name)
			continue
		}
		if ts, has := e.Float("ts"); has {
			if i == 0 {
				t0 = ts
			}
			xs[i], ok[i] = ts-t0, true
		} else {
			xs[i], ok[i] = float64(i)*cr.Catalog.RecordingFrequency, true
		}
	}
	return xs, ok
}

func (cr *ChartRenderer) style(f Field, width float64) chart.Style {
	col := f.Color
	if col == "" {
		col = cr.Catalog.DefaultColor
	}
	c := drawing.ColorFromHex(strings.TrimPrefix(col, "#"))
	st := chart.Style{StrokeColor: c, StrokeWidth: width}
	switch f.Line {
	case "--":
		st.StrokeDashArray = []float64{6, 4}
	case ":":
		st.StrokeDashArray = []float64{2, 3}
	case "-.":
		st.StrokeDashArray = []float64{6, 3, 2, 3}
	}
	if f.Point != "" {
		st.DotColor = c
		st.DotWidth = width + 2
	}
	return st
}

// padded avoids a zero width range which the chart library refuses.
func padded(vals []float64) *chart.ContinuousRange {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func (cr *ChartRenderer) panel(data []Entry, req ChartRequest, x Field, y Field, xs []float64, xok []bool, title string) (image.Image, error) {
	var px, py []float64
	for i, e := range data {
		v, ok := e.Float(y.Name)
		if !ok || !xok[i] {
			continue
		}
		px = append(px, xs[i])
		py = append(py, v)
	}
	if len(px) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrNotEnoughData, y.Name)
	}

	width := req.LineWidth
	if width <= 0 {
		width = cr.Catalog.DefaultLineWidth
	}
	xl := req.XLabel
	if xl == "" {
		xl = cr.label(x)
	}
	yl := req.YLabel
	if yl == "" {
		yl = cr.label(y)
	}

	ch := chart.Chart{
		Title:      title,
		Width:      panelWidth,
		Height:     panelHeight,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 10}},
		XAxis:      chart.XAxis{Name: xl, Range: padded(px)},
		YAxis:      chart.YAxis{Name: yl, Range: padded(py)},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: y.Name, XValues: px, YValues: py, Style: cr.style(y, width)},
		},
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// Render writes the chart as PNG.
func (cr *ChartRenderer) Render(w io.Writer, data []Entry, req ChartRequest) error {
	x, ys, err := cr.Plan(req)
	if err != nil {
		return err
	}
	xs, xok := cr.xValues(data, x)
	title := cr.Title(req, x, ys)

	panels := make([]image.Image, 0, len(ys))
	height := 0
	for i, y := range ys {
		t := ""
		if i == 0 {
			t = title
		}
		img, err := cr.panel(data, req, x, y, xs, xok, t)
		if err != nil {
			return err
		}
		panels = append(panels, img)
		height += img.Bounds().Dy()
	}

	out := image.NewRGBA(image.Rect(0, 0, panelWidth, height))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	top := 0
	for _, img := range panels {
		b := img.Bounds()
		draw.Draw(out, image.Rect(0, top, b.Dx(), top+b.Dy()), img, b.Min, draw.Over)
		top += b.Dy()
	}
	return png.Encode(w, out)
}
