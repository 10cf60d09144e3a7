//go:build !linux

package hal

import "errors"

var errUnsupported = errors.New("hal: not supported on this platform (requires Linux)")

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(chip string, pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (o *RealOutput) Set(high bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (o *RealOutput) Close() error { return nil }

// ADS1115 is not available on non-Linux platforms.
type ADS1115 struct{}

// NewADS1115 returns an error on non-Linux platforms.
func NewADS1115(busName string) (*ADS1115, error) {
	return nil, errUnsupported
}

// Channel is not implemented on non-Linux platforms.
func (a *ADS1115) Channel(n int) (*RealAnalog, error) { return nil, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (a *ADS1115) Close() error { return nil }

// RealAnalog is not available on non-Linux platforms.
type RealAnalog struct{}

// Read is not implemented on non-Linux platforms.
func (r *RealAnalog) Read() (int, error) { return 0, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (r *RealAnalog) Close() error { return nil }
