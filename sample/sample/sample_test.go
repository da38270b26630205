package sample

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescentProducer(t *testing.T) {
	dp := &DescentProducer{dropAltitude: 100, descentSpeed: 40, rnd: rand.New(rand.NewSource(1))}
	require.NoError(t, dp.Init(false))

	var alts []float64
	var prev float64
	for i := 0; i < 4; i++ {
		r, err := dp.Produce()
		require.NoError(t, err)
		alts = append(alts, r["altitude"])
		if i > 0 && i < 3 {
			assert.Greater(t, r["pression"], prev, "pression rises while falling")
		}
		prev = r["pression"]
	}
	assert.Equal(t, []float64{100, 60, 20, 100}, alts)
}

func TestDescentProducerDrift(t *testing.T) {
	dp := &DescentProducer{dropAltitude: 100, descentSpeed: 50, lat: 48, lon: 2, drift: 0.5, rnd: rand.New(rand.NewSource(1))}
	require.NoError(t, dp.Init(false))

	var lons []float64
	for i := 0; i < 3; i++ {
		r, err := dp.Produce()
		require.NoError(t, err)
		assert.Equal(t, 48.0, r["lat"])
		lons = append(lons, r["lon"])
	}
	assert.Equal(t, []float64{2, 2.5, 2}, lons, "a new drop starts over the drop point")
}
