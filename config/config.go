// Package config loads the tmp007d configuration from TOML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"periph.io/x/conn/v3/physic"
)

//go:embed default.toml
var defaultTOML []byte

// Trigger modes select the deferral mechanism.
const (
	ModeNone         = "none" // no interrupt, poll only
	ModeOwnThread    = "own_thread"
	ModeGlobalThread = "global_thread"
)

// GPIO backends.
const (
	BackendSim  = "sim"
	BackendRPIO = "rpio"
)

type Config struct {
	I2C        I2C        `toml:"i2c"`
	GPIO       GPIO       `toml:"gpio"`
	Trigger    Trigger    `toml:"trigger"`
	Thresholds Thresholds `toml:"thresholds"`
	Metrics    Metrics    `toml:"metrics"`
	Log        Log        `toml:"log"`
	Sim        Sim        `toml:"sim"`
}

type I2C struct {
	Bus     string `toml:"bus"`
	Address uint16 `toml:"address"`
}

type GPIO struct {
	Device     string `toml:"device"`
	Pin        int    `toml:"pin"`
	Backend    string `toml:"backend"`
	DebounceMS int    `toml:"debounce_ms"`
	PollMS     int    `toml:"poll_ms"`
}

func (g GPIO) Debounce() time.Duration { return time.Duration(g.DebounceMS) * time.Millisecond }
func (g GPIO) Poll() time.Duration     { return time.Duration(g.PollMS) * time.Millisecond }

type Trigger struct {
	Mode      string `toml:"mode"`
	QueueSize int    `toml:"queue_size"`
}

// Thresholds are temperatures such as "30.5C"; empty leaves the register alone.
type Thresholds struct {
	Scale int64  `toml:"scale"`
	Upper string `toml:"upper"`
	Lower string `toml:"lower"`
}

type Metrics struct {
	Listen string `toml:"listen"` // empty disables the exporter
}

type Log struct {
	Verbosity int `toml:"verbosity"`
}

type Sim struct {
	IntervalMS int    `toml:"interval_ms"`
	Start      string `toml:"start"`
}

func (s Sim) Interval() time.Duration { return time.Duration(s.IntervalMS) * time.Millisecond }

// Defaults returns the embedded default configuration.
func Defaults() Config {
	var c Config
	if err := toml.Unmarshal(defaultTOML, &c); err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return c
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes raw TOML over the defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	c := Defaults()
	if err := toml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

var (
	ErrUnknownMode    = errors.New("unknown trigger mode")
	ErrUnknownBackend = errors.New("unknown gpio backend")
)

func (c Config) Validate() error {
	switch c.Trigger.Mode {
	case ModeNone, ModeOwnThread, ModeGlobalThread:
	default:
		return fmt.Errorf("trigger.mode %q: %w", c.Trigger.Mode, ErrUnknownMode)
	}
	switch c.GPIO.Backend {
	case BackendSim, BackendRPIO:
	default:
		return fmt.Errorf("gpio.backend %q: %w", c.GPIO.Backend, ErrUnknownBackend)
	}
	if c.GPIO.Device == "" {
		return errors.New("gpio.device must be set")
	}
	if c.GPIO.Pin < 0 || c.GPIO.Pin > 31 {
		return fmt.Errorf("gpio.pin %d out of range", c.GPIO.Pin)
	}
	if c.I2C.Address == 0 || c.I2C.Address > 0x7F {
		return fmt.Errorf("i2c.address %#x is not a 7-bit address", c.I2C.Address)
	}
	if c.Thresholds.Scale <= 0 {
		return errors.New("thresholds.scale must be positive")
	}
	for name, s := range map[string]string{"thresholds.upper": c.Thresholds.Upper, "thresholds.lower": c.Thresholds.Lower, "sim.start": c.Sim.Start} {
		if _, _, err := parseTemperature(s); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// UpperThreshold returns the configured upper limit, if any.
func (t Thresholds) UpperThreshold() (physic.Temperature, bool, error) {
	return parseTemperature(t.Upper)
}

// LowerThreshold returns the configured lower limit, if any.
func (t Thresholds) LowerThreshold() (physic.Temperature, bool, error) {
	return parseTemperature(t.Lower)
}

// StartTemperature is the first simulated reading.
func (s Sim) StartTemperature() physic.Temperature {
	t, ok, err := parseTemperature(s.Start)
	if !ok || err != nil {
		return physic.ZeroCelsius + 20*physic.Kelvin
	}
	return t
}

func parseTemperature(s string) (physic.Temperature, bool, error) {
	if s == "" {
		return 0, false, nil
	}
	var t physic.Temperature
	if err := t.Set(s); err != nil {
		return 0, false, err
	}
	return t, true, nil
}
