package ghm

import (
	"errors"
	"fmt"
	"os"

	"github.com/LC-Sat/web-application-online/pkg/axis"
	"gopkg.in/yaml.v3"
)

var ErrBadCatalog = errors.New("invalid field catalog")

// Field describes one telemetry value that can be charted.
type Field struct {
	Name   string `yaml:"name" json:"name"`
	Prefix string `yaml:"prefix" json:"prefix"`
	Unit   string `yaml:"unit" json:"unit"`
	Color  string `yaml:"color,omitempty" json:"color,omitempty"`
	Point  string `yaml:"point,omitempty" json:"point,omitempty"`
	Line   string `yaml:"line,omitempty" json:"line,omitempty"`
}

type Catalog struct {
	RecordingFrequency float64  `yaml:"recordingFrequency" json:"recordingFrequency"`
	DefaultLineWidth   float64  `yaml:"defaultLineWidth" json:"defaultLineWidth"`
	DefaultColor       string   `yaml:"defaultColor" json:"defaultColor"`
	StartupDisabled    *string  `yaml:"startupDisabled,omitempty" json:"startupDisabled,omitempty"`
	PointsType         []string `yaml:"pointsType" json:"pointsType"`
	LinesType          []string `yaml:"linesType" json:"linesType"`
	Fields             []Field  `yaml:"fields" json:"fields"`
	// Labels translates the chart texts: field prefixes, "in" and
	// "dependingOn". Missing keys fall back to English.
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Map    MapConfig         `yaml:"map" json:"map"`
}

// MapConfig holds the defaults of the flight track map.
type MapConfig struct {
	Latitude     string   `yaml:"latitude" json:"latitude"`
	Longitude    string   `yaml:"longitude" json:"longitude"`
	DefaultTitle string   `yaml:"defaultTitle" json:"defaultTitle"`
	DefaultIcon  string   `yaml:"defaultIcon" json:"defaultIcon"`
	Icons        []string `yaml:"icons" json:"icons"`
	IconColor    string   `yaml:"iconColor" json:"iconColor"`
	IconColors   []string `yaml:"iconColors" json:"iconColors"`
	DefaultZoom  int      `yaml:"defaultZoom" json:"defaultZoom"`
	Tiles        []string `yaml:"tiles" json:"tiles"`
}

var defaultLabels = map[string]string{
	"in":          "in",
	"dependingOn": "depending on",
}

var timeField = Field{Name: axis.Time, Prefix: axis.Time, Unit: "s"}

func DefaultCatalog() *Catalog {
	return &Catalog{
		RecordingFrequency: 0.3,
		DefaultLineWidth:   1,
		DefaultColor:       "#fc7303",
		PointsType:         []string{"", "o", "x", "+", "."},
		LinesType:          []string{"-", "--", ":", "-."},
		Fields: []Field{
			{Name: "pression", Prefix: "pre", Unit: "hPa", Color: "#1f77b4"},
			{Name: "temperature", Prefix: "tmp", Unit: "°C", Color: "#d62728"},
			{Name: "altitude", Prefix: "alt", Unit: "m", Color: "#2ca02c"},
			{Name: "humidity", Prefix: "hum", Unit: "%", Color: "#9467bd"},
			{Name: "speed", Prefix: "spd", Unit: "m/s", Color: "#8c564b"},
		},
		Map: MapConfig{
			Latitude:     "lat",
			Longitude:    "lon",
			DefaultTitle: "CanSat flight",
			DefaultIcon:  "circle",
			Icons:        []string{"circle", "square", "diamond"},
			IconColor:    "red",
			IconColors:   []string{"red", "blue", "green", "orange", "purple", "black"},
			DefaultZoom:  15,
			Tiles:        []string{"https://tile.openstreetmap.org/{z}/{x}/{y}.png"},
		},
	}
}

// LoadCatalog reads a YAML catalog. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultCatalog()
	c.Fields = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Catalog) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrBadCatalog)
	}
	seen := map[string]bool{}
	for _, f := range c.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("%w: field without name", ErrBadCatalog)
		case f.Name == axis.Time:
			return fmt.Errorf("%w: %q is reserved", ErrBadCatalog, axis.Time)
		case seen[f.Name]:
			return fmt.Errorf("%w: duplicate field %q", ErrBadCatalog, f.Name)
		}
		seen[f.Name] = true
	}
	if c.RecordingFrequency <= 0 {
		return fmt.Errorf("%w: recordingFrequency must be positive", ErrBadCatalog)
	}
	if s := c.Startup(); s != "" && !seen[s] {
		return fmt.Errorf("%w: %w: %q", ErrBadCatalog, axis.ErrStartupControl, s)
	}
	return nil
}

// Text returns the translated label for key, or the key itself.
func (c *Catalog) Text(key string) string {
	if v, ok := c.Labels[key]; ok && v != "" {
		return v
	}
	if v, ok := defaultLabels[key]; ok {
		return v
	}
	return key
}

// FieldLabel names a field in chart texts. Fields are translated through
// their prefix, then their name.
func (c *Catalog) FieldLabel(f Field) string {
	if v, ok := c.Labels[f.Prefix]; ok && v != "" {
		return v
	}
	return c.Text(f.Name)
}

// Startup returns the series disabled when a chart form is created.
func (c *Catalog) Startup() string {
	if c.StartupDisabled == nil {
		return axis.DefaultStartupDisabled
	}
	return *c.StartupDisabled
}

// Names returns the Y series field names in catalog order.
func (c *Catalog) Names() []string {
	res := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		res[i] = f.Name
	}
	return res
}

// XFields lists the X axis choices: every data field followed by time.
func (c *Catalog) XFields() []Field {
	return append(append([]Field{}, c.Fields...), timeField)
}

func (c *Catalog) Lookup(name string) (Field, bool) {
	for _, f := range c.XFields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// NewForm builds the server side state of a chart form: the X axis selector
// on the first field and one checkbox per field, wired to a controller.
func (c *Catalog) NewForm() (*axis.Select, *axis.Controller, error) {
	names := c.Names()
	sel := axis.NewSelect(names[0])
	fields := append(names, axis.Time)
	ctl, err := axis.New(sel, axis.Checkboxes(names...),
		axis.WithStartupDisabled(c.Startup()),
		axis.WithFields(fields...))
	if err != nil {
		return nil, nil, err
	}
	if err := ctl.Initialize(); err != nil {
		return nil, nil, err
	}
	return sel, ctl, nil
}
