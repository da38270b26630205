package ghm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayProducer(t *testing.T) {
	p := writeFile(t, "data.json", `{"altitude": [300, 290, 280], "pression": [980, 981]}`)
	rp := &ReplayProducer{path: p}
	require.NoError(t, rp.Init(false))
	assert.Equal(t, []string{"altitude", "pression"}, rp.ds.Fields())

	r, err := rp.Produce()
	require.NoError(t, err)
	assert.Equal(t, Reading{"altitude": 300, "pression": 980}, r)

	_, err = rp.Produce()
	require.NoError(t, err)
	r, err = rp.Produce()
	require.NoError(t, err)
	assert.Equal(t, Reading{"altitude": 280}, r, "short columns are left out")

	_, err = rp.Produce()
	assert.ErrorIs(t, err, ErrEndOfData)
}

func TestReplayProducerLoop(t *testing.T) {
	rp := &ReplayProducer{loop: true, ds: DataSet{"a": {1, 2}}}
	require.NoError(t, rp.Init(false))
	var got []float64
	for i := 0; i < 5; i++ {
		r, err := rp.Produce()
		require.NoError(t, err)
		got = append(got, r["a"])
	}
	assert.Equal(t, []float64{1, 2, 1, 2, 1}, got)
}

func TestLoadDataSetErrors(t *testing.T) {
	_, err := LoadDataSet(writeFile(t, "bad.json", `[1,2]`))
	assert.Error(t, err)
	_, err = LoadDataSet("does-not-exist.json")
	assert.Error(t, err)
}
