package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Mode selects the observer's operating mode at configuration time.
type Mode string

const (
	// ModeNormal publishes torques only.
	ModeNormal Mode = "normal"
	// ModeTiming additionally publishes cycle and FT-read timing.
	ModeTiming Mode = "timing"
	// ModeCompare additionally publishes predicted-vs-measured sensor
	// wrenches for all four FT limbs.
	ModeCompare Mode = "compare"
)

// MinPeriodMS is the recommended lower bound on the cycle period.
const MinPeriodMS = 20

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDObserver string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDMockRig  string

	// Observer identity
	ObserverName string
	Robot        string
	// Part is parsed and logged but consumed by nothing: the observer
	// always attaches all six groups regardless of its value.
	Part string

	// Estimation
	PeriodMS          int
	CalibrationTrials int
	Mode              Mode

	// Web view
	WebServerPort int

	// Mock rig
	MockRigIntervalMS int
}

// Default returns the configuration the observer assumes for every
// key the file does not override.
func Default() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDObserver: "torque-observer",
		MQTTClientIDConsole:  "torque-observer-console",
		MQTTClientIDWeb:      "torque-observer-web",
		MQTTClientIDMockRig:  "torque-observer-mockrig",
		ObserverName:         "wholeBodyTorqueObserver",
		Robot:                "icub",
		Part:                 "left_arm",
		PeriodMS:             100,
		CalibrationTrials:    10,
		Mode:                 ModeNormal,
		WebServerPort:        8080,
		MockRigIntervalMS:    10,
	}
}

// Package-level unexported variables for the config singleton. External
// code must use InitGlobal() to set and Get() to read; configOnce makes
// initialization idempotent and configMu keeps readers safe against it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file over the defaults. A missing file
// is not an error: the observer runs with defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_OBSERVER":
		c.MQTTClientIDObserver = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_MOCKRIG":
		c.MQTTClientIDMockRig = value

	// Identity
	case "OBSERVER_NAME":
		c.ObserverName = value
	case "ROBOT":
		c.Robot = value
	case "PART":
		c.Part = value

	// Estimation
	case "PERIOD_MS":
		period, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PERIOD_MS %q: %w", value, err)
		}
		if period < 1 {
			return fmt.Errorf("PERIOD_MS must be positive, got %d", period)
		}
		c.PeriodMS = period
	case "CALIBRATION_TRIALS":
		trials, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_TRIALS %q: %w", value, err)
		}
		if trials < 1 {
			return fmt.Errorf("CALIBRATION_TRIALS must be positive, got %d", trials)
		}
		c.CalibrationTrials = trials
	case "MODE":
		switch Mode(value) {
		case ModeNormal, ModeTiming, ModeCompare:
			c.Mode = Mode(value)
		default:
			return fmt.Errorf("MODE must be normal, timing or compare, got %q", value)
		}

	// Web
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Mock rig
	case "MOCKRIG_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOCKRIG_INTERVAL_MS %q: %w", value, err)
		}
		if interval < 1 {
			return fmt.Errorf("MOCKRIG_INTERVAL_MS must be positive, got %d", interval)
		}
		c.MockRigIntervalMS = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.ObserverName == "" {
		return fmt.Errorf("OBSERVER_NAME is required")
	}
	if c.Robot == "" {
		return fmt.Errorf("ROBOT is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
