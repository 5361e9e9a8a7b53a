package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/env"
	"github.com/thatsimonsguy/filtration-controller/internal/model"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

var dogstatsd *statsd.Client

func InitMetrics() {
	if !env.Cfg.EnableDatadog {
		log.Info().Msg("Datadog metrics disabled")
		return
	}

	var err error
	dogstatsd, err = statsd.New(env.Cfg.DDAgentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	dogstatsd.Namespace = env.Cfg.DDNamespace
	dogstatsd.Tags = env.Cfg.DDTags

	log.Info().
		Str("addr", env.Cfg.DDAgentAddr).
		Str("namespace", env.Cfg.DDNamespace).
		Strs("tags", env.Cfg.DDTags).
		Msg("Datadog metrics initialized")
}

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		err := dogstatsd.Gauge(name, value, tags, 1)
		if err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

var gauge = Gauge

var modes = []model.ModeKind{model.ModeAutomatic, model.ModeManual, model.ModeBreach, model.ModeOff}

// Emitter sends one set of gauges per tick.
type Emitter struct{}

func (Emitter) Emit(snap status.Snapshot) error {
	gauge("distance_cm", float64(snap.DistanceCM))

	for name, open := range snap.Valves.Map() {
		gauge("valve.open", boolValue(open), "valve:"+name)
	}

	for _, m := range modes {
		gauge("mode", boolValue(snap.Mode == m), "mode:"+string(m))
	}

	gauge("breach", boolValue(snap.Breached()))
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
