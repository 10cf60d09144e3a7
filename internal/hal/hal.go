// Package hal provides hardware access with abstraction for testing.
// The real implementations use the Linux GPIO character device for digital
// lines and an ADS1115 I2C converter for analog channels. The fakes allow
// exercising the control loop without hardware, on a virtual clock.
package hal

import "time"

// AnalogReader reads one bound analog channel.
type AnalogReader interface {
	// Read returns the current raw converter value for the channel.
	Read() (int, error)

	// Close releases the channel.
	Close() error
}

// Output drives one bound digital line.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(high bool) error

	// Close releases the line, driving it low first.
	Close() error
}

// Clock supplies time to components that wait.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the real Clock backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Pin defaults (BCM numbering)
const (
	DefaultPinEmitter = 17 // IR LED driver
	DefaultPinBuzzer  = 27 // piezo buzzer
)

// ADS1115 channel assignments
const (
	DefaultChannelIR    = 0 // IR photodiode
	DefaultChannelLight = 1 // ambient light photocell
	DefaultChannelTemp  = 2 // thermistor
)
