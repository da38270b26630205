package ghm

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrEndOfData is returned by producers that have nothing left to deliver.
// The executor stops its loop without counting it as a failure.
var ErrEndOfData = errors.New("end of data")

// Executor to be obtained via NewExecutor
type Executor interface {
	Main()
}

// Consumer receives every reading the producer delivers.
type Consumer[R any] interface {
	Setup(*cobra.Command, string)
	Init(bool) error
	Consume(v R) error
	Close() error
}

// Producer delivers one telemetry reading per executor tick.
type Producer[R any] interface {
	Setup(*cobra.Command, string)
	Init(bool) error
	Produce() (R, error)
	Close() error
}

// Entry is a flat, chartable view of a reading keyed by field name.
// The "ts" key holds the unix timestamp of the reading.
type Entry map[string]any

// Float returns the numeric value stored under name.
func (e Entry) Float(name string) (float64, bool) {
	switch v := e[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
