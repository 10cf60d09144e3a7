// Package config loads daemon configuration from a YAML file, with
// defaults for every field so a missing or partial file still yields a
// runnable configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/obstacle-alarm/internal/hal"
)

// Config represents the daemon configuration.
type Config struct {
	Poll      time.Duration `yaml:"poll"`      // control cycle interval
	Heartbeat time.Duration `yaml:"heartbeat"` // heartbeat interval (0 disables)
	Sampling  Sampling      `yaml:"sampling"`
	Pins      Pins          `yaml:"pins"`
	ADC       ADC           `yaml:"adc"`
	MQTT      MQTT          `yaml:"mqtt"`
	Serial    Serial        `yaml:"serial"`
	Storage   Storage       `yaml:"storage"`
	HTTP      HTTP          `yaml:"http"`
}

// Sampling contains the estimator and alert timing parameters.
type Sampling struct {
	Samples   int           `yaml:"samples"`    // paired samples per cycle
	Settle    time.Duration `yaml:"settle"`     // emitter settle time per reading
	PulseUnit time.Duration `yaml:"pulse_unit"` // alert pulse time unit
}

// Pins contains GPIO output assignments (BCM numbering).
type Pins struct {
	Chip    string `yaml:"chip"`
	Emitter int    `yaml:"emitter"`
	Buzzer  int    `yaml:"buzzer"`
}

// ADC contains ADS1115 channel assignments.
type ADC struct {
	Bus          string `yaml:"bus"` // I2C bus name, "" for first available
	IRChannel    int    `yaml:"ir_channel"`
	LightChannel int    `yaml:"light_channel"`
	TempChannel  int    `yaml:"temp_channel"`
}

// MQTT contains broker configuration. An empty broker disables publishing.
type MQTT struct {
	Broker string `yaml:"broker"`
}

// Serial contains the serial telemetry sink configuration. An empty port
// disables the sink.
type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// Storage contains the cycle log configuration. An empty path disables it.
type Storage struct {
	Path string `yaml:"path"`
}

// HTTP contains the status server configuration. An empty address disables
// the server.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with sensible values for a Pi with the
// standard sensor board.
func Default() *Config {
	return &Config{
		Poll:      500 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		Sampling: Sampling{
			Samples:   5,
			Settle:    time.Millisecond,
			PulseUnit: time.Millisecond,
		},
		Pins: Pins{
			Chip:    "gpiochip0",
			Emitter: hal.DefaultPinEmitter,
			Buzzer:  hal.DefaultPinBuzzer,
		},
		ADC: ADC{
			IRChannel:    hal.DefaultChannelIR,
			LightChannel: hal.DefaultChannelLight,
			TempChannel:  hal.DefaultChannelTemp,
		},
		MQTT: MQTT{
			Broker: "tcp://192.168.1.200:1883",
		},
		Serial: Serial{
			Baud: 9600,
		},
		HTTP: HTTP{
			Addr: ":80",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist,
// defaults are returned; fields missing from the file keep their defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate rejects configurations the control loop cannot run with.
func (c *Config) Validate() error {
	if c.Poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll)
	}
	if c.Sampling.Samples < 1 {
		return fmt.Errorf("sampling.samples must be at least 1, got %d", c.Sampling.Samples)
	}
	if c.Sampling.Settle <= 0 {
		return fmt.Errorf("sampling.settle must be positive, got %v", c.Sampling.Settle)
	}
	if c.Sampling.PulseUnit <= 0 {
		return fmt.Errorf("sampling.pulse_unit must be positive, got %v", c.Sampling.PulseUnit)
	}
	for name, ch := range map[string]int{
		"ir_channel":    c.ADC.IRChannel,
		"light_channel": c.ADC.LightChannel,
		"temp_channel":  c.ADC.TempChannel,
	} {
		if ch < 0 || ch > 3 {
			return fmt.Errorf("adc.%s must be 0-3, got %d", name, ch)
		}
	}
	if c.ADC.IRChannel == c.ADC.LightChannel || c.ADC.IRChannel == c.ADC.TempChannel {
		return fmt.Errorf("adc.ir_channel %d must not be shared with telemetry channels", c.ADC.IRChannel)
	}
	return nil
}
