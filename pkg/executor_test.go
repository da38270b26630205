package ghm

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listProducer struct {
	values []Reading
	errs   []error
}

func (lp *listProducer) Setup(*cobra.Command, string) {}
func (lp *listProducer) Init(bool) error             { return nil }
func (lp *listProducer) Close() error                { return nil }
func (lp *listProducer) Produce() (Reading, error) {
	if len(lp.errs) > 0 {
		err := lp.errs[0]
		lp.errs = lp.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(lp.values) == 0 {
		return nil, ErrEndOfData
	}
	v := lp.values[0]
	lp.values = lp.values[1:]
	return v, nil
}

type recordingConsumer struct {
	got []Reading
	err error
}

func (rc *recordingConsumer) Setup(*cobra.Command, string) {}
func (rc *recordingConsumer) Init(bool) error             { return nil }
func (rc *recordingConsumer) Close() error                { return nil }
func (rc *recordingConsumer) Consume(v Reading) error {
	rc.got = append(rc.got, v)
	return rc.err
}

func TestExecutorTick(t *testing.T) {
	p := &listProducer{
		values: []Reading{{"a": 1}, {"a": 2}},
		errs:   []error{errors.New("sensor"), nil, nil},
	}
	c := &recordingConsumer{}
	ex := NewExecutor[Reading]("test", p, c).(*executor[Reading])

	actfail := 0
	assert.True(t, ex.tick(&actfail))
	assert.Equal(t, 1, actfail)
	assert.True(t, ex.tick(&actfail))
	assert.Equal(t, 0, actfail, "a good reading resets the fail counter")
	assert.True(t, ex.tick(&actfail))
	assert.False(t, ex.tick(&actfail), "end of data stops the loop")
	assert.Equal(t, []Reading{{"a": 1}, {"a": 2}}, c.got)
}

func TestExecutorTickConsumeFailure(t *testing.T) {
	p := &listProducer{values: []Reading{{"a": 1}}}
	c := &recordingConsumer{err: errors.New("down")}
	ex := NewExecutor[Reading]("test", p, c).(*executor[Reading])
	ex.failOnConsume = true

	actfail := 0
	assert.True(t, ex.tick(&actfail))
	assert.Equal(t, 1, actfail)
}

func TestApplyEnv(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	port := fs.Int("port", 2999, "")
	topic := fs.String("topic-availability", "a", "")
	debug := fs.Bool("debug", false, "")
	require.NoError(t, fs.Parse([]string{"--port", "8080"}))

	t.Setenv("CANSAT_PORT", "9000")
	t.Setenv("CANSAT_TOPIC_AVAILABILITY", "cansat/aval")
	t.Setenv("CANSAT_DEBUG", "true")
	require.NoError(t, applyEnv(fs))

	assert.Equal(t, 8080, *port, "command line wins")
	assert.Equal(t, "cansat/aval", *topic)
	assert.True(t, *debug)

	t.Setenv("CANSAT_PORT", "x")
	fs2 := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs2.Int("port", 1, "")
	assert.Error(t, applyEnv(fs2))
}

func TestConsoleFormat(t *testing.T) {
	cc := &ConsoleConsumer[Reading]{ToRawConverter: ReadingEntry}
	require.NoError(t, cc.Init(false))
	e := ReadingEntry(Reading{"b": 2, "a": 1})
	e["ts"] = 10.0
	assert.Equal(t, "a=1 b=2", cc.format(e))

	cc.fields = []string{"b", "missing"}
	assert.Equal(t, "b=2", cc.format(e))
}
