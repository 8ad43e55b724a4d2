// Package config loads the host settings: a YAML file overlaid by
// WHEELBOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"wheelbot/core"
	"wheelbot/host/mcu"
	"wheelbot/host/serial"
	"wheelbot/sim"
)

var (
	ErrBadMode   = errors.New("mode must be serial, sim or gpio")
	ErrBadListen = errors.New("http.listen must be host:port")
)

// MaxBCMPin is GPIO27, the last header pin on a Raspberry Pi.
const MaxBCMPin core.Pin = 27

// Modes select how the host reaches the robot.
const (
	ModeSerial = "serial"
	ModeSim    = "sim"
	ModeGPIO   = "gpio"
)

type Config struct {
	Mode     string         `yaml:"mode" env:"WHEELBOT_MODE"`
	Serial   SerialConfig   `yaml:"serial"`
	HTTP     HTTPConfig     `yaml:"http"`
	Firmware FirmwareConfig `yaml:"firmware"`
	Debug    bool           `yaml:"debug" env:"WHEELBOT_DEBUG"`

	// Board is the pin assignment for gpio mode, in BCM numbers.
	Board core.Board `yaml:"board"`
	Sim   SimConfig  `yaml:"sim"`
}

type SerialConfig struct {
	// Device is empty to auto-detect a micro:bit.
	Device        string `yaml:"device" env:"WHEELBOT_DEVICE"`
	Baud          int    `yaml:"baud" env:"WHEELBOT_BAUD"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
}

// HTTPConfig configures the API. Serve starts it instead of the console.
type HTTPConfig struct {
	Serve              bool   `yaml:"serve" env:"WHEELBOT_SERVE"`
	Listen             string `yaml:"listen" env:"WHEELBOT_LISTEN"`
	DistanceIntervalMS int    `yaml:"distance_interval_ms"`
}

type FirmwareConfig struct {
	Constraint string `yaml:"constraint"`
}

type SimConfig struct {
	ObstacleCM uint32 `yaml:"obstacle_cm"`
	RealTime   bool   `yaml:"real_time"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Mode: ModeSerial,
		Serial: SerialConfig{
			Baud:          115200,
			ReadTimeoutMS: 100,
		},
		HTTP: HTTPConfig{
			Listen:             "127.0.0.1:8080",
			DistanceIntervalMS: 200,
		},
		Firmware: FirmwareConfig{Constraint: mcu.DefaultConstraint},
		Board:    core.BitBot,
		Sim:      SimConfig{ObstacleCM: 40},
	}
}

// Load reads path over the defaults, applies the environment and validates.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSerial, ModeSim, ModeGPIO:
	default:
		return fmt.Errorf("%w, got %q", ErrBadMode, c.Mode)
	}
	if _, _, err := net.SplitHostPort(c.HTTP.Listen); err != nil {
		return fmt.Errorf("%w: %v", ErrBadListen, err)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	}
	maxPin := core.MaxEdgePin
	if c.Mode == ModeGPIO {
		maxPin = MaxBCMPin
	}
	if err := c.Board.Validate(maxPin); err != nil {
		return err
	}
	if c.HTTP.DistanceIntervalMS <= 0 {
		c.HTTP.DistanceIntervalMS = Default().HTTP.DistanceIntervalMS
	}
	return nil
}

// SerialPort returns the port settings for device.
func (c *Config) SerialPort(device string) *serial.Config {
	return &serial.Config{
		Device:      device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeoutMS,
	}
}

func (c *Config) SimOptions() sim.Options {
	return sim.Options{ObstacleCM: c.Sim.ObstacleCM, RealTime: c.Sim.RealTime}
}

func (c *Config) DistanceInterval() time.Duration {
	return time.Duration(c.HTTP.DistanceIntervalMS) * time.Millisecond
}
