package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type GPIO struct {
	// range finder
	RangeTrigger *int `json:"range_trigger"`
	RangeEcho    *int `json:"range_echo"`

	// valves
	InletValve    *int `json:"inlet_valve"`
	DrainValve    *int `json:"drain_valve"`
	FilteredValve *int `json:"filtered_valve"`
	BridgeValve   *int `json:"bridge_valve"`

	// misc
	FaultIndicator *int `json:"fault_indicator"`
}

type Breach struct {
	Kind      string `json:"kind"` // digital or analog
	Pin       *int   `json:"pin"`
	Path      string `json:"path"`
	Threshold int    `json:"threshold"`
}

type MQTT struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
}

type Watchdog struct {
	Kind   string `json:"kind"` // systemd, device or none
	Device string `json:"device"`
}

type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level
	LogFile    string
	SafeMode   bool

	TickIntervalMS int    `json:"tick_interval_ms"`
	GPIOBackend    string `json:"gpio_backend"`
	GPIOChip       string `json:"gpio_chip"`
	RTCAddress     int    `json:"rtc_address"`
	SerialDevice   string `json:"serial_device"`
	SerialBaud     int    `json:"serial_baud"`

	GPIO     GPIO     `json:"gpio"`
	Breach   Breach   `json:"breach"`
	MQTT     MQTT     `json:"mqtt"`
	Watchdog Watchdog `json:"watchdog"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic            string `json:"ntfy_topic"`
	JournalPath          string `json:"journal_path"`
	JournalRetentionDays int    `json:"journal_retention_days"`
	HTTPPort             int    `json:"http_port"`

	BootScriptPath  string `json:"boot_script_path"`
	ServiceUnitPath string `json:"service_unit_path"`
	BinaryPath      string `json:"binary_path"`
}

// Load parses process flags and the JSON config file they point at.
func Load() Config {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) Config {
	var cfg Config
	var logLevel string

	fs := flag.NewFlagSet("filtration-controller", flag.ExitOnError)
	fs.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Append logs to this file instead of stderr")
	fs.BoolVar(&cfg.SafeMode, "safe-mode", false, "Never drive output pins")
	fs.Parse(args)

	cfg.LogLevel = ParseLogLevel(logLevel)
	cfg.loadFile()
	return cfg
}

// LoadFile reads only the JSON config, for tools that do not take the
// controller's flags.
func LoadFile(path string) Config {
	cfg := Config{ConfigFile: path, LogLevel: zerolog.InfoLevel}
	cfg.loadFile()
	return cfg
}

func (cfg *Config) loadFile() {
	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
}

func ParseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.TickIntervalMS == 0 {
		cfg.TickIntervalMS = 4000
	}
	if cfg.GPIOBackend == "" {
		cfg.GPIOBackend = "gpiocdev"
	}
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = "gpiochip0"
	}
	if cfg.RTCAddress == 0 {
		cfg.RTCAddress = 0x68
	}
	if cfg.Breach.Kind == "" {
		cfg.Breach.Kind = "digital"
	}
	if cfg.Breach.Threshold == 0 {
		cfg.Breach.Threshold = 60
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "water/filtration"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "filtration-controller"
	}
	if cfg.Watchdog.Kind == "" {
		cfg.Watchdog.Kind = "systemd"
	}
	if cfg.SerialBaud == 0 {
		cfg.SerialBaud = 9600
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = "data/journal.db"
	}
	// negative keeps the journal forever
	if cfg.JournalRetentionDays == 0 {
		cfg.JournalRetentionDays = 90
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if cfg.BootScriptPath == "" {
		cfg.BootScriptPath = "/usr/local/bin/filtration-boot.sh"
	}
	if cfg.ServiceUnitPath == "" {
		cfg.ServiceUnitPath = "/etc/systemd/system"
	}
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "/usr/local/bin/filtration-controller"
	}
}

func (cfg Config) TickInterval() time.Duration {
	return time.Duration(cfg.TickIntervalMS) * time.Millisecond
}

// ValvePins returns the valve pin numbers in inlet, drain, filtered, bridge order.
func (cfg Config) ValvePins() []int {
	return []int{*cfg.GPIO.InletValve, *cfg.GPIO.DrainValve, *cfg.GPIO.FilteredValve, *cfg.GPIO.BridgeValve}
}

func (cfg *Config) validate() {
	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")

		if field.IsNil() {
			missingFields = append(missingFields, "gpio."+fieldName)
			continue
		}

		pin := field.Elem().Int()
		if other, exists := usedPins[int(pin)]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[int(pin)] = fieldName
		}
	}

	switch cfg.Breach.Kind {
	case "digital":
		if cfg.Breach.Pin == nil {
			missingFields = append(missingFields, "breach.pin")
		} else if other, exists := usedPins[*cfg.Breach.Pin]; exists {
			conflicts = append(conflicts, fmt.Sprintf("breach.pin and gpio.%s both use pin %d", other, *cfg.Breach.Pin))
		}
	case "analog":
		if cfg.Breach.Path == "" {
			missingFields = append(missingFields, "breach.path")
		}
	default:
		panic("Unknown breach sensor kind: " + cfg.Breach.Kind)
	}

	if len(missingFields) > 0 {
		panic("Missing required config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
}
