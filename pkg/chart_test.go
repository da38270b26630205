package ghm

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/LC-Sat/web-application-online/pkg/axis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descent(n int) []Entry {
	res := make([]Entry, n)
	for i := range res {
		res[i] = Entry{
			"ts":          float64(100 + i),
			"altitude":    float64(1000 - 10*i),
			"pression":    900 + float64(i),
			"temperature": 15 - 0.1*float64(i),
		}
	}
	return res
}

func TestChartPlanDropsXFromSeries(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	x, ys, err := cr.Plan(ChartRequest{X: "pression", Y: []string{"pression", "temperature"}})
	require.NoError(t, err)
	assert.Equal(t, "pression", x.Name)
	require.Len(t, ys, 1)
	assert.Equal(t, "temperature", ys[0].Name)

	_, _, err = cr.Plan(ChartRequest{X: "pression", Y: []string{"pression"}})
	assert.ErrorIs(t, err, ErrNoSeries)
	_, _, err = cr.Plan(ChartRequest{X: "nope", Y: []string{"pression"}})
	assert.ErrorIs(t, err, ErrUnknownSeries)
	_, _, err = cr.Plan(ChartRequest{X: "altitude", Y: []string{axis.Time}})
	assert.ErrorIs(t, err, ErrUnknownSeries)
}

func TestChartTitle(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	req := ChartRequest{X: axis.Time, Y: []string{"pression", "altitude"}}
	x, ys, err := cr.Plan(req)
	require.NoError(t, err)
	assert.Equal(t, "pression, altitude depending on time.", cr.Title(req, x, ys))

	req.Title = "Descent"
	assert.Equal(t, "Descent", cr.Title(req, x, ys))
}

func TestChartTimeAxis(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	tf, _ := cr.Catalog.Lookup(axis.Time)

	xs, ok := cr.xValues(descent(3), tf)
	assert.Equal(t, []float64{0, 1, 2}, xs)
	assert.Equal(t, []bool{true, true, true}, ok)

	xs, _ = cr.xValues([]Entry{{"a": 1.0}, {"a": 2.0}, {"a": 3.0}}, tf)
	assert.InDeltaSlice(t, []float64{0, 0.3, 0.6}, xs, 1e-9)
}

func TestChartRenderStacksPanels(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	var buf bytes.Buffer
	err := cr.Render(&buf, descent(20), ChartRequest{X: "altitude", Y: []string{"pression", "temperature", "altitude"}})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, panelWidth, img.Bounds().Dx())
	assert.Equal(t, 2*panelHeight, img.Bounds().Dy())
}

func TestChartRenderConstantSeries(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	data := descent(5)
	for _, e := range data {
		e["temperature"] = 12.0
	}
	var buf bytes.Buffer
	require.NoError(t, cr.Render(&buf, data, ChartRequest{X: axis.Time, Y: []string{"temperature"}}))
}

func TestChartRenderNotEnoughData(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	var buf bytes.Buffer
	err := cr.Render(&buf, descent(1), ChartRequest{X: axis.Time, Y: []string{"pression"}})
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestChartPlanStyleOverrides(t *testing.T) {
	cr := &ChartRenderer{Catalog: DefaultCatalog()}
	req := ChartRequest{
		X: "altitude",
		Y: []string{"pression", "temperature"},
		Styles: map[string]SeriesStyle{
			"temperature": {Color: "#000000", Point: "x", Line: "--"},
		},
	}
	_, ys, err := cr.Plan(req)
	require.NoError(t, err)
	require.Len(t, ys, 2)
	assert.Equal(t, "#1f77b4", ys[0].Color, "series without override keep the catalog style")
	assert.Equal(t, Field{Name: "temperature", Prefix: "tmp", Unit: "°C", Color: "#000000", Point: "x", Line: "--"}, ys[1])

	var buf bytes.Buffer
	require.NoError(t, cr.Render(&buf, descent(5), req))

	for name, st := range map[string]SeriesStyle{
		"color": {Color: "blue"},
		"point": {Point: "*"},
		"line":  {Line: "~"},
	} {
		req.Styles = map[string]SeriesStyle{"pression": st}
		_, _, err := cr.Plan(req)
		assert.ErrorIs(t, err, ErrBadStyle, name)
	}
}

func TestChartTranslatedLabels(t *testing.T) {
	c := DefaultCatalog()
	c.Labels = map[string]string{
		"pre":         "Pression",
		"alt":         "Altitude",
		"time":        "temps",
		"dependingOn": "en fonction de",
		"in":          "en",
	}
	cr := &ChartRenderer{Catalog: c}
	req := ChartRequest{X: axis.Time, Y: []string{"pression", "altitude", "temperature"}}
	x, ys, err := cr.Plan(req)
	require.NoError(t, err)
	assert.Equal(t, "Pression, Altitude, temperature en fonction de temps.", cr.Title(req, x, ys))
	assert.Equal(t, "Pression (en hPa)", cr.label(ys[0]))
	assert.Equal(t, "temperature (en °C)", cr.label(ys[2]))
}
