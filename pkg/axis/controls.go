package axis

import "sync"

// Select is an in-memory X axis selector.
type Select struct {
	mu        sync.Mutex
	value     string
	listeners []func(string)
}

func NewSelect(value string) *Select {
	return &Select{value: value}
}

func (s *Select) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Select) OnChange(f func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, f)
}

// Set stores value and notifies listeners in registration order. Listeners
// run synchronously, after the lock is released.
func (s *Select) Set(value string) {
	s.mu.Lock()
	s.value = value
	ls := append([]func(string){}, s.listeners...)
	s.mu.Unlock()
	for _, l := range ls {
		l(value)
	}
}

// Checkbox is an in-memory Y series control.
type Checkbox struct {
	id       string
	disabled bool
}

func NewCheckbox(id string, disabled bool) *Checkbox {
	return &Checkbox{id: id, disabled: disabled}
}

func (c *Checkbox) ID() string         { return c.id }
func (c *Checkbox) Disabled() bool     { return c.disabled }
func (c *Checkbox) SetDisabled(d bool) { c.disabled = d }

// Checkboxes builds one enabled checkbox per id.
func Checkboxes(ids ...string) []Control {
	res := make([]Control, len(ids))
	for i, id := range ids {
		res[i] = NewCheckbox(id, false)
	}
	return res
}
