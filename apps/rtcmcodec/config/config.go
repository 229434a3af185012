// Package config reads the description of a reference station from a YAML
// file.  JSON is also accepted since it's a subset of YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxStationID is the largest station ID that fits in the 12-bit field.
const MaxStationID = 4095

// MaxQuarterCycleIndicator is the largest value of the 2-bit field.
const MaxQuarterCycleIndicator = 3

// MaxAntennaHeight is the largest antenna height in metres that fits in
// the 16-bit field of message type 1006.
const MaxAntennaHeight = 6.5535

// ErrInvalid is returned when the config is well formed but contains values
// that can't be sent.
var ErrInvalid = errors.New("invalid config")

// Config describes the reference station.
type Config struct {
	StationID uint `yaml:"station_id" json:"station_id"`

	// The antenna reference point in ECEF, metres.
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`

	// AntennaHeight is the height of the antenna reference point above the
	// marker in metres.  If it's given the station is sent as a type 1006,
	// otherwise as a type 1005.
	AntennaHeight *float64 `yaml:"antenna_height" json:"antenna_height"`

	GPS     bool `yaml:"gps" json:"gps"`
	Glonass bool `yaml:"glonass" json:"glonass"`
	Galileo bool `yaml:"galileo" json:"galileo"`

	ReferenceStation         bool `yaml:"reference_station" json:"reference_station"`
	SingleReceiverOscillator bool `yaml:"single_receiver_oscillator" json:"single_receiver_oscillator"`
	QuarterCycleIndicator    uint `yaml:"quarter_cycle_indicator" json:"quarter_cycle_indicator"`

	// LogLevel is "debug", "info", "warn" or "error".  Empty means info.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// GetConfig gets the config from the given file.
func GetConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		slog.Error("cannot read config file", "file", configFile, "error", err)
		return nil, err
	}

	config, err := parseConfigFromBytes(data)
	if err != nil {
		slog.Error("not a valid config file", "file", configFile, "error", err)
		return nil, err
	}

	return config, nil
}

func parseConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the values fit in their fields.
func (config *Config) Validate() error {
	if config.StationID > MaxStationID {
		return fmt.Errorf("%w: station_id %d is over %d", ErrInvalid, config.StationID, MaxStationID)
	}
	if config.QuarterCycleIndicator > MaxQuarterCycleIndicator {
		return fmt.Errorf("%w: quarter_cycle_indicator %d is over %d",
			ErrInvalid, config.QuarterCycleIndicator, MaxQuarterCycleIndicator)
	}
	if h := config.AntennaHeight; h != nil && (*h < 0 || *h > MaxAntennaHeight) {
		return fmt.Errorf("%w: antenna_height %.4f is outside 0 to %.4f",
			ErrInvalid, *h, MaxAntennaHeight)
	}
	if _, err := config.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the logging level named in the config.
func (config *Config) Level() (slog.Level, error) {
	var level slog.Level
	if config.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(config.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalid, config.LogLevel)
	}
	return level, nil
}
