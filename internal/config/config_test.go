package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 500*time.Millisecond, cfg.Poll)
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat)
	assert.Equal(t, 5, cfg.Sampling.Samples)
	assert.Equal(t, time.Millisecond, cfg.Sampling.Settle)
	assert.Equal(t, time.Millisecond, cfg.Sampling.PulseUnit)
	assert.Equal(t, "gpiochip0", cfg.Pins.Chip)
	assert.Equal(t, ":80", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Serial.Port, "serial sink disabled by default")
	assert.Empty(t, cfg.Storage.Path, "cycle log disabled by default")
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.yaml")
	data := `
poll: 250ms
heartbeat: 1m
sampling:
  samples: 10
  settle: 2ms
pins:
  emitter: 5
  buzzer: 6
mqtt:
  broker: tcp://10.0.0.5:1883
serial:
  port: /dev/ttyAMA0
storage:
  path: /var/lib/obstacle-alarm/cycles.db
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Poll)
	assert.Equal(t, time.Minute, cfg.Heartbeat)
	assert.Equal(t, 10, cfg.Sampling.Samples)
	assert.Equal(t, 2*time.Millisecond, cfg.Sampling.Settle)
	assert.Equal(t, 5, cfg.Pins.Emitter)
	assert.Equal(t, 6, cfg.Pins.Buzzer)
	assert.Equal(t, "tcp://10.0.0.5:1883", cfg.MQTT.Broker)
	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
	assert.Equal(t, "/var/lib/obstacle-alarm/cycles.db", cfg.Storage.Path)

	// Fields absent from the file keep defaults.
	assert.Equal(t, time.Millisecond, cfg.Sampling.PulseUnit)
	assert.Equal(t, "gpiochip0", cfg.Pins.Chip)
	assert.Equal(t, 9600, cfg.Serial.Baud)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll: [not a duration"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero samples", func(c *Config) { c.Sampling.Samples = 0 }, true},
		{"negative samples", func(c *Config) { c.Sampling.Samples = -3 }, true},
		{"zero poll", func(c *Config) { c.Poll = 0 }, true},
		{"zero settle", func(c *Config) { c.Sampling.Settle = 0 }, true},
		{"zero pulse unit", func(c *Config) { c.Sampling.PulseUnit = 0 }, true},
		{"adc channel out of range", func(c *Config) { c.ADC.TempChannel = 4 }, true},
		{"ir channel shared with light", func(c *Config) { c.ADC.LightChannel = c.ADC.IRChannel }, true},
		{"light and temp may swap", func(c *Config) {
			c.ADC.LightChannel = 2
			c.ADC.TempChannel = 1
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
