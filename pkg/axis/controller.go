// Package axis keeps the Y data series toggles of a chart form consistent
// with the field chosen for the X axis: a field can not be plotted against
// itself, except for the time axis which leaves every series selectable.
package axis

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

const (
	// Time is the X axis value that exempts all series from being disabled.
	Time = "time"
	// DefaultStartupDisabled is the series disabled once at initialization.
	DefaultStartupDisabled = "pression"
)

var (
	ErrNoSelector     = errors.New("axis: no x axis selector")
	ErrNoControls     = errors.New("axis: no y series controls")
	ErrStartupControl = errors.New("axis: startup control not found")
	ErrUnmatchedField = errors.New("axis: field has no y series control")
	ErrUnknownField   = errors.New("axis: unknown x axis field")
)

// Selector is the single-choice X axis control.
type Selector interface {
	Value() string
}

// Notifier is implemented by selectors that announce value changes.
type Notifier interface {
	OnChange(func(value string))
}

// Control is one toggleable Y series control.
type Control interface {
	ID() string
	Disabled() bool
	SetDisabled(bool)
}

// State is the externally visible state of one control.
type State struct {
	ID       string `json:"id"`
	Disabled bool   `json:"disabled"`
}

type Option func(*Controller)

// WithStartupDisabled changes the control disabled by Initialize. An empty id
// turns the startup rule off.
func WithStartupDisabled(id string) Option {
	return func(c *Controller) { c.startup = id }
}

// WithFields declares the closed set of X axis fields. New then requires a
// control for every field other than Time and HandleChange rejects values
// outside the set.
func WithFields(fields ...string) Option {
	return func(c *Controller) {
		c.fields = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			c.fields[f] = struct{}{}
		}
	}
}

type Controller struct {
	mu       sync.Mutex
	selector Selector
	controls []Control
	startup  string
	fields   map[string]struct{}
}

func New(selector Selector, controls []Control, opts ...Option) (*Controller, error) {
	if selector == nil {
		return nil, ErrNoSelector
	}
	if len(controls) == 0 {
		return nil, ErrNoControls
	}
	c := &Controller{
		selector: selector,
		controls: controls,
		startup:  DefaultStartupDisabled,
	}
	for _, o := range opts {
		o(c)
	}
	for f := range c.fields {
		if f == Time {
			continue
		}
		if c.find(f) == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnmatchedField, f)
		}
	}
	return c, nil
}

// Initialize disables the startup control regardless of the selector's
// current value and subscribes to selector changes.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	if c.startup != "" {
		ctl := c.find(c.startup)
		if ctl == nil {
			c.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrStartupControl, c.startup)
		}
		ctl.SetDisabled(true)
	}
	c.mu.Unlock()

	if n, ok := c.selector.(Notifier); ok {
		n.OnChange(func(string) {
			if err := c.OnXAxisChanged(); err != nil {
				log.Printf("axis: %v", err)
			}
		})
	}
	return nil
}

// OnXAxisChanged re-evaluates the controls against the selector's value.
func (c *Controller) OnXAxisChanged() error {
	return c.HandleChange(c.selector.Value())
}

// HandleChange enables every control, then disables the first control whose
// id equals value unless value is Time. A value without a control is a no-op.
func (c *Controller) HandleChange(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fields != nil {
		if _, ok := c.fields[value]; !ok && value != Time {
			return fmt.Errorf("%w: %q", ErrUnknownField, value)
		}
	}

	for _, ctl := range c.controls {
		ctl.SetDisabled(false)
	}
	if value == Time {
		return nil
	}
	if ctl := c.find(value); ctl != nil {
		ctl.SetDisabled(true)
	}
	return nil
}

// Snapshot returns the controls' state in their given order.
func (c *Controller) Snapshot() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([]State, len(c.controls))
	for i, ctl := range c.controls {
		res[i] = State{ID: ctl.ID(), Disabled: ctl.Disabled()}
	}
	return res
}

func (c *Controller) find(id string) Control {
	for _, ctl := range c.controls {
		if ctl.ID() == id {
			return ctl
		}
	}
	return nil
}
