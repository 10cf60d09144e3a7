// Package alert maps distance estimates to buzzer behavior.
package alert

import (
	"fmt"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/hal"
)

// Regime is the buzzer's behavior class for a distance estimate.
type Regime string

const (
	RegimeOff        Regime = "OFF"
	RegimePulsed     Regime = "PULSED"
	RegimeContinuous Regime = "CONTINUOUS"
)

// Regime thresholds. The pulse phase for PULSED is (pulseBase - distance)
// units, so pulseBase must stay well above pulsedMax: with the values below
// the shortest phase is 50 units, and the duration can never reach zero.
const (
	offMax    = 1   // at or below: no alert
	pulsedMax = 100 // at or below (and above offMax): pulsed alert
	pulseBase = 150
)

// DefaultUnit is the pulse time unit, the minimum schedulable delay on the
// target.
const DefaultUnit = time.Millisecond

// RegimeFor classifies a distance estimate. Any integer is accepted;
// negative distances fall in the OFF regime.
func RegimeFor(distance int) Regime {
	switch {
	case distance <= offMax:
		return RegimeOff
	case distance <= pulsedMax:
		return RegimePulsed
	default:
		return RegimeContinuous
	}
}

// PulsePhaseUnits returns the duration in units of one pulse phase for a
// distance in the PULSED regime, and 0 for any other distance.
func PulsePhaseUnits(distance int) int {
	if RegimeFor(distance) != RegimePulsed {
		return 0
	}
	return pulseBase - distance
}

// Controller drives the buzzer from distance estimates. Update blocks for
// one full pulse in the PULSED regime and is not reentrant; it shares the
// single thread of control with the sampling loop.
type Controller struct {
	buzzer hal.Output
	clock  hal.Clock
	unit   time.Duration
}

// NewController creates a Controller. unit <= 0 selects DefaultUnit.
func NewController(buzzer hal.Output, clock hal.Clock, unit time.Duration) *Controller {
	if unit <= 0 {
		unit = DefaultUnit
	}
	return &Controller{
		buzzer: buzzer,
		clock:  clock,
		unit:   unit,
	}
}

// Update evaluates the regime for the given distance and drives the buzzer:
// OFF holds it low, CONTINUOUS holds it high, PULSED emits one high phase
// and one low phase of (150 - distance) units each. No state is carried
// between calls.
func (c *Controller) Update(distance int) error {
	switch RegimeFor(distance) {
	case RegimeOff:
		if err := c.buzzer.Set(false); err != nil {
			return fmt.Errorf("buzzer off: %w", err)
		}
		return nil

	case RegimeContinuous:
		if err := c.buzzer.Set(true); err != nil {
			return fmt.Errorf("buzzer on: %w", err)
		}
		return nil
	}

	phase := time.Duration(PulsePhaseUnits(distance)) * c.unit
	if err := c.buzzer.Set(true); err != nil {
		return fmt.Errorf("buzzer pulse on: %w", err)
	}
	c.clock.Sleep(phase)
	if err := c.buzzer.Set(false); err != nil {
		return fmt.Errorf("buzzer pulse off: %w", err)
	}
	c.clock.Sleep(phase)
	return nil
}
