//go:build linux

package hal

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// ADS1115 owns the I2C bus and converter shared by all analog channels.
type ADS1115 struct {
	bus i2c.BusCloser
	dev *ads1x15.Dev
}

// NewADS1115 opens the named I2C bus ("" for the first available) and
// initialises the converter at its default address.
func NewADS1115(busName string) (*ADS1115, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init ads1115: %w", err)
	}
	return &ADS1115{bus: bus, dev: dev}, nil
}

// Channel returns an AnalogReader bound to one single-ended input (0-3).
// Full-scale range is 3.3V, matching the sensor supply rail.
func (a *ADS1115) Channel(n int) (*RealAnalog, error) {
	var ch ads1x15.Channel
	switch n {
	case 0:
		ch = ads1x15.Channel0
	case 1:
		ch = ads1x15.Channel1
	case 2:
		ch = ads1x15.Channel2
	case 3:
		ch = ads1x15.Channel3
	default:
		return nil, fmt.Errorf("ads1115 channel %d out of range", n)
	}
	pin, err := a.dev.PinForChannel(ch, 3300*physic.MilliVolt, 860*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("bind channel %d: %w", n, err)
	}
	return &RealAnalog{pin: pin}, nil
}

// Close releases the I2C bus. Channels must be closed first.
func (a *ADS1115) Close() error {
	return a.bus.Close()
}

// RealAnalog reads one ADS1115 single-ended channel.
type RealAnalog struct {
	pin analog.PinADC
}

// Read performs a one-shot conversion and returns the raw value.
func (r *RealAnalog) Read() (int, error) {
	sample, err := r.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("adc read: %w", err)
	}
	return int(sample.Raw), nil
}

// Close halts conversions on the channel.
func (r *RealAnalog) Close() error {
	return r.pin.Halt()
}
