package ghm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LC-Sat/web-application-online/pkg/axis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadCatalogDefault(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, "pression", c.Startup())

	xs := c.XFields()
	assert.Len(t, xs, len(c.Fields)+1)
	assert.Equal(t, axis.Time, xs[len(xs)-1].Name)
}

func TestLoadCatalogYAML(t *testing.T) {
	p := writeFile(t, "charts.yaml", `
recordingFrequency: 0.5
startupDisabled: ""
fields:
  - name: temperature
    prefix: tmp
    unit: K
  - name: altitude
    prefix: alt
    unit: m
    line: "--"
`)
	c, err := LoadCatalog(p)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.RecordingFrequency)
	assert.Equal(t, []string{"temperature", "altitude"}, c.Names())
	assert.Equal(t, "", c.Startup())
	assert.Equal(t, 1.0, c.DefaultLineWidth, "defaults kept for missing keys")

	f, ok := c.Lookup("altitude")
	require.True(t, ok)
	assert.Equal(t, "--", f.Line)
	_, ok = c.Lookup(axis.Time)
	assert.True(t, ok)
}

func TestCatalogValidate(t *testing.T) {
	for name, fields := range map[string][]Field{
		"empty":     nil,
		"no name":   {{Unit: "m"}},
		"reserved":  {{Name: axis.Time}},
		"duplicate": {{Name: "a"}, {Name: "a"}},
	} {
		c := DefaultCatalog()
		c.Fields = fields
		assert.ErrorIs(t, c.Validate(), ErrBadCatalog, name)
	}

	p := writeFile(t, "bad.yaml", "fields: [{name: time}]")
	_, err := LoadCatalog(p)
	assert.ErrorIs(t, err, ErrBadCatalog)
}

func TestCatalogNewForm(t *testing.T) {
	c := DefaultCatalog()
	sel, ctl, err := c.NewForm()
	require.NoError(t, err)
	assert.Equal(t, "pression", sel.Value())

	snap := ctl.Snapshot()
	require.Len(t, snap, len(c.Fields))
	assert.Equal(t, axis.State{ID: "pression", Disabled: true}, snap[0])

	sel.Set("altitude")
	for _, s := range ctl.Snapshot() {
		assert.Equal(t, s.ID == "altitude", s.Disabled, s.ID)
	}
}

func TestCatalogNewFormMissingStartup(t *testing.T) {
	c := DefaultCatalog()
	c.Fields = []Field{{Name: "altitude"}}
	_, _, err := c.NewForm()
	assert.ErrorIs(t, err, axis.ErrStartupControl)

	none := ""
	c.StartupDisabled = &none
	_, ctl, err := c.NewForm()
	require.NoError(t, err)
	assert.False(t, ctl.Snapshot()[0].Disabled)
}

const catalogWithoutPression = `
fields:
  - name: temperature
    unit: K
  - name: altitude
    unit: m
`

func TestCatalogValidateStartupField(t *testing.T) {
	_, err := LoadCatalog(writeFile(t, "charts.yaml", catalogWithoutPression))
	assert.ErrorIs(t, err, ErrBadCatalog)
	assert.ErrorIs(t, err, axis.ErrStartupControl)

	c, err := LoadCatalog(writeFile(t, "charts.yaml", catalogWithoutPression+"startupDisabled: altitude\n"))
	require.NoError(t, err)
	assert.Equal(t, "altitude", c.Startup())

	c, err = LoadCatalog(writeFile(t, "charts.yaml", catalogWithoutPression+"startupDisabled: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "", c.Startup())
}
