package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/db"
	"github.com/thatsimonsguy/filtration-controller/internal/api"
	"github.com/thatsimonsguy/filtration-controller/internal/breach"
	"github.com/thatsimonsguy/filtration-controller/internal/bus"
	"github.com/thatsimonsguy/filtration-controller/internal/command"
	"github.com/thatsimonsguy/filtration-controller/internal/config"
	"github.com/thatsimonsguy/filtration-controller/internal/controllers/filtercontroller"
	"github.com/thatsimonsguy/filtration-controller/internal/counter"
	"github.com/thatsimonsguy/filtration-controller/internal/datadog"
	"github.com/thatsimonsguy/filtration-controller/internal/device"
	"github.com/thatsimonsguy/filtration-controller/internal/env"
	"github.com/thatsimonsguy/filtration-controller/internal/gpio"
	"github.com/thatsimonsguy/filtration-controller/internal/logging"
	"github.com/thatsimonsguy/filtration-controller/internal/mqtt"
	"github.com/thatsimonsguy/filtration-controller/internal/notifications"
	"github.com/thatsimonsguy/filtration-controller/internal/rangefinder"
	"github.com/thatsimonsguy/filtration-controller/internal/rtc"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
	"github.com/thatsimonsguy/filtration-controller/internal/watchdog"
	"github.com/thatsimonsguy/filtration-controller/system/shutdown"
)

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel, cfg.LogFile)

	sessionID := db.NewSessionID()
	log.Info().
		Str("config_file", cfg.ConfigFile).
		Str("session", sessionID).
		Msg("Starting filtration controller")

	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED - valve and trigger outputs are disabled")
	}

	indicator, err := openPin(*cfg.GPIO.FaultIndicator, gpio.Output)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open fault indicator")
	}
	shutdown.Arm(&shutdown.EmergencyHandle{Indicator: indicator})

	valves, err := openValves(cfg)
	if err != nil {
		shutdown.Halt(err, "Could not open valve outputs")
	}
	if err := valves.SetIdle(); err != nil {
		shutdown.Halt(err, "Could not close valves at startup")
	}

	i2c, err := bus.NewI2CBus()
	if err != nil {
		shutdown.Halt(err, "Could not open I2C bus")
	}
	defer i2c.Close()

	clock := rtc.NewAt(i2c, byte(cfg.RTCAddress))
	if err := clock.Start(); err != nil {
		shutdown.Halt(err, "Could not start real time clock")
	}
	start, err := clock.DateTime()
	if err != nil {
		shutdown.Halt(err, "Could not read real time clock")
	}
	log.Info().Str("start_time", start.String()).Msg("Clock running")

	rng, err := openRangeFinder(cfg)
	if err != nil {
		shutdown.Halt(err, "Could not open range finder pins")
	}

	sensor, err := openBreachSensor(cfg)
	if err != nil {
		shutdown.Halt(err, "Could not open breach sensor")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := command.NewQueue(command.DefaultQueueSize)
	tracker := status.NewTracker()
	registry := prometheus.NewRegistry()
	emitters := []status.Emitter{tracker, api.NewMetrics(registry)}

	if cfg.SerialDevice != "" {
		serial, err := command.OpenSerial(cfg.SerialDevice, cfg.SerialBaud)
		if err != nil {
			log.Warn().Err(err).Str("device", cfg.SerialDevice).Msg("Serial override channel unavailable")
			emitters = append(emitters, status.NewLineWriter(os.Stdout))
		} else {
			defer serial.Close()
			emitters = append(emitters, status.NewLineWriter(serial))
			go func() {
				if err := command.NewSerialReader(serial, queue).Run(ctx); err != nil {
					log.Error().Err(err).Msg("Serial reader stopped")
				}
			}()
		}
	} else {
		emitters = append(emitters, status.NewLineWriter(os.Stdout))
	}

	datadog.InitMetrics()
	emitters = append(emitters, datadog.Emitter{})

	notifications.Init()
	if notifications.Enabled() {
		alerts := status.NewAsync("ntfy", &notifications.BreachAlerter{}, status.DefaultBacklog)
		go alerts.Run(ctx)
		emitters = append(emitters, alerts)
	}

	journal, err := db.Open(cfg.JournalPath)
	if err != nil {
		log.Warn().Err(err).Msg("Event journal unavailable, continuing without it")
	} else {
		defer journal.Close()
		if _, err := db.ApplyRetention(journal, cfg.JournalRetentionDays, time.Now()); err != nil {
			log.Warn().Err(err).Msg("Failed to prune journal")
		}
		recorder := db.NewRecorder(journal, sessionID)
		if err := recorder.RecordStartup(start.String()); err != nil {
			log.Warn().Err(err).Msg("Failed to journal startup")
		}
		emitters = append(emitters, recorder)
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT unavailable, continuing without it")
		} else {
			defer pub.Close()
			publish := status.NewAsync("mqtt", mqtt.NewEmitter(pub), status.DefaultBacklog)
			go publish.Run(ctx)
			emitters = append(emitters, publish)
		}
	}

	server := api.NewServer(tracker, queue, journal, registry)
	go func() {
		if err := server.Start(cfg.HTTPPort); err != nil {
			log.Error().Err(err).Msg("REST API server stopped")
		}
	}()

	dog, err := watchdog.Open(cfg.Watchdog.Kind, cfg.Watchdog.Device)
	if err != nil {
		shutdown.Halt(err, "Could not open watchdog")
	}
	if sd, ok := dog.(*watchdog.Systemd); ok {
		if interval := watchdog.Interval(); interval > 0 && interval <= cfg.TickInterval() {
			log.Warn().Dur("watchdog", interval).Dur("tick", cfg.TickInterval()).Msg("Watchdog timeout shorter than tick interval")
		}
		if err := sd.Ready(); err != nil {
			log.Warn().Err(err).Msg("Failed to report readiness")
		}
	}

	runner := &filtercontroller.Runner{
		Control:   filtercontroller.NewControl(start, valves),
		Clock:     clock,
		Range:     rng,
		Breach:    sensor,
		Commands:  queue,
		Emitters:  emitters,
		Watchdog:  dog,
		Interval:  cfg.TickInterval(),
		SessionID: sessionID,
	}

	if err := runner.Run(ctx); err != nil {
		msg := "Filter controller halted"
		if errors.Is(err, filtercontroller.ErrFaultRequested) {
			msg = "Operator requested fault"
		}
		shutdown.Halt(err, msg)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("REST API server did not stop cleanly")
	}
	if err := valves.SetIdle(); err != nil {
		log.Error().Err(err).Msg("Failed to close valves on shutdown")
	}
	if d, ok := dog.(*watchdog.Device); ok {
		d.Close()
	}
	shutdown.Shutdown("signal")
}

func openPin(number int, dir gpio.Direction) (gpio.Pin, error) {
	return gpio.Open(env.Cfg.GPIOBackend, env.Cfg.GPIOChip, number, dir)
}

func openValves(cfg config.Config) (*device.ValveGroup, error) {
	var pins [4]gpio.Pin
	for i, n := range cfg.ValvePins() {
		p, err := openPin(n, gpio.Output)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}
	return device.NewValveGroup(pins[0], pins[1], pins[2], pins[3]), nil
}

func openRangeFinder(cfg config.Config) (*rangefinder.Sensor, error) {
	trigger, err := openPin(*cfg.GPIO.RangeTrigger, gpio.Output)
	if err != nil {
		return nil, err
	}
	echo, err := openPin(*cfg.GPIO.RangeEcho, gpio.Input)
	if err != nil {
		return nil, err
	}
	return rangefinder.New(trigger, echo, counter.NewMonotonic(counter.DefaultPeriod)), nil
}

func openBreachSensor(cfg config.Config) (breach.Sensor, error) {
	if cfg.Breach.Kind == "analog" {
		return breach.NewThreshold(breach.SysfsAnalog{Path: cfg.Breach.Path}, cfg.Breach.Threshold), nil
	}
	pin, err := openPin(*cfg.Breach.Pin, gpio.Input)
	if err != nil {
		return nil, err
	}
	return breach.Digital{Pin: pin}, nil
}
