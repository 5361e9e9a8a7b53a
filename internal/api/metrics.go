package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thatsimonsguy/filtration-controller/internal/model"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

// Metrics mirrors each status snapshot into prometheus gauges.
type Metrics struct {
	distance prometheus.Gauge
	valves   *prometheus.GaugeVec
	mode     *prometheus.GaugeVec
	breach   prometheus.Gauge
	ticks    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		distance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filtration",
			Name:      "distance_cm",
			Help:      "Last range finder reading in centimeters, 0 when absent.",
		}),
		valves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "filtration",
			Name:      "valve_open",
			Help:      "1 when the valve is open.",
		}, []string{"valve"}),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "filtration",
			Name:      "mode",
			Help:      "1 for the active control mode.",
		}, []string{"mode"}),
		breach: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filtration",
			Name:      "breach_latched",
			Help:      "1 while a water breach is latched.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filtration",
			Name:      "ticks_total",
			Help:      "Completed control loop ticks.",
		}),
	}
	reg.MustRegister(m.distance, m.valves, m.mode, m.breach, m.ticks)
	return m
}

func (m *Metrics) Emit(snap status.Snapshot) error {
	m.distance.Set(float64(snap.DistanceCM))
	for name, open := range snap.Valves.Map() {
		m.valves.WithLabelValues(name).Set(boolValue(open))
	}
	for _, k := range []model.ModeKind{model.ModeAutomatic, model.ModeManual, model.ModeBreach, model.ModeOff} {
		m.mode.WithLabelValues(string(k)).Set(boolValue(snap.Mode == k))
	}
	m.breach.Set(boolValue(snap.Breached()))
	m.ticks.Inc()
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
