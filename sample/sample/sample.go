package sample

import (
	"log"
	"math"
	"math/rand"
	"time"

	ghm "github.com/LC-Sat/web-application-online/pkg"
	"github.com/spf13/cobra"
)

const (
	seaLevelPression = 1013.25
	lapseRate        = 0.0065
	seaLevelTemp     = 288.15
)

// DescentProducer simulates a CanSat falling under its parachute from the
// drop altitude down to the ground, then starting over.
type DescentProducer struct {
	dropAltitude float64
	descentSpeed float64
	noise        float64
	lat, lon     float64
	drift        float64
	debug        bool

	rnd      *rand.Rand
	altitude float64
	step     int
}

func (dp *DescentProducer) Setup(cmd *cobra.Command, name string) {
	cmd.PersistentFlags().Float64Var(&dp.dropAltitude, "drop-altitude", 1000, "Simulated drop altitude, meters")
	cmd.PersistentFlags().Float64Var(&dp.descentSpeed, "descent-speed", 9, "Simulated descent speed, m/s per reading")
	cmd.PersistentFlags().Float64Var(&dp.noise, "noise", 0.02, "Relative sensor noise")
	cmd.PersistentFlags().Float64Var(&dp.lat, "drop-lat", 48.8566, "Simulated drop latitude")
	cmd.PersistentFlags().Float64Var(&dp.lon, "drop-lon", 2.3522, "Simulated drop longitude")
	cmd.PersistentFlags().Float64Var(&dp.drift, "wind-drift", 0.00005, "Simulated eastward drift, degrees per reading")
}

func (dp *DescentProducer) Init(d bool) error {
	dp.debug = d
	if dp.rnd == nil {
		dp.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	dp.altitude = dp.dropAltitude
	dp.step = 0
	return nil
}

func (dp *DescentProducer) jitter(v float64) float64 {
	return v * (1 + dp.noise*(dp.rnd.Float64()*2-1))
}

// Produce returns one frame of the standard atmosphere at the current
// altitude.
func (dp *DescentProducer) Produce() (ghm.Reading, error) {
	if dp.altitude <= 0 {
		dp.altitude = dp.dropAltitude
		dp.step = 0
	}
	temp := seaLevelTemp - lapseRate*dp.altitude
	pression := seaLevelPression * math.Pow(temp/seaLevelTemp, 5.2559)
	r := ghm.Reading{
		"altitude":    dp.altitude,
		"pression":    dp.jitter(pression),
		"temperature": dp.jitter(temp - 273.15),
		"humidity":    dp.jitter(40 + 20*dp.altitude/dp.dropAltitude),
		"speed":       dp.jitter(dp.descentSpeed),
		"lat":         dp.lat,
		"lon":         dp.lon + dp.drift*float64(dp.step),
	}
	if dp.debug {
		log.Printf("Simulated reading at %.0f m", dp.altitude)
	}
	dp.altitude -= dp.descentSpeed
	dp.step++
	return r, nil
}

func (dp *DescentProducer) Close() error { return nil }
