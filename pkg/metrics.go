package ghm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cansat",
		Name:      "readings_total",
		Help:      "Telemetry readings handed to consumers.",
	})
	axisChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cansat",
		Name:      "axis_changes_total",
		Help:      "X axis changes of chart forms by outcome.",
	}, []string{"result"})
	chartRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cansat",
		Name:      "chart_renders_total",
		Help:      "Rendered chart images by outcome.",
	}, []string{"result"})
	formSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cansat",
		Name:      "form_sessions",
		Help:      "Chart form sessions held in memory.",
	})
)
