// Package ranging implements differential IR distance estimation.
// One analog channel is sampled twice per sample index: once with the IR
// emitter off (ambient) and once with it on (obstacle). The difference
// cancels ambient light; its mean over a cycle is the distance estimate.
// Larger values mean a closer obstacle, in uncalibrated converter units.
package ranging

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/hal"
)

// ErrInvalidSampleCount is returned by Estimate for a sample count below 1.
var ErrInvalidSampleCount = errors.New("ranging: sample count must be at least 1")

// DefaultSettle is the wait between toggling the emitter and reading the
// converter. It must exceed the converter's sample-and-hold settling time.
const DefaultSettle = time.Millisecond

// Estimator produces one distance estimate per call from paired samples.
// It owns the emitter and the IR analog channel for the duration of each
// Estimate call; callers must not touch either concurrently.
type Estimator struct {
	adc     hal.AnalogReader
	emitter hal.Output
	clock   hal.Clock
	settle  time.Duration
}

// NewEstimator creates an Estimator. settle <= 0 selects DefaultSettle.
func NewEstimator(adc hal.AnalogReader, emitter hal.Output, clock hal.Clock, settle time.Duration) *Estimator {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Estimator{
		adc:     adc,
		emitter: emitter,
		clock:   clock,
		settle:  settle,
	}
}

// Estimate takes sampleCount paired readings and returns the integer-
// truncated mean of the per-sample differentials (ambient minus obstacle).
// Negative results are valid and mean no obstacle. The emitter is left on
// after a successful call; callers must not assume it is off.
//
// The accumulator is local to the call: every call starts from zero.
func (e *Estimator) Estimate(sampleCount int) (int, error) {
	if sampleCount < 1 {
		return 0, ErrInvalidSampleCount
	}

	sum := 0
	for i := 0; i < sampleCount; i++ {
		if err := e.emitter.Set(false); err != nil {
			return 0, fmt.Errorf("emitter off: %w", err)
		}
		e.clock.Sleep(e.settle)
		ambient, err := e.adc.Read()
		if err != nil {
			return 0, fmt.Errorf("read ambient: %w", err)
		}

		if err := e.emitter.Set(true); err != nil {
			return 0, fmt.Errorf("emitter on: %w", err)
		}
		e.clock.Sleep(e.settle)
		obstacle, err := e.adc.Read()
		if err != nil {
			return 0, fmt.Errorf("read obstacle: %w", err)
		}

		sum += ambient - obstacle
	}

	return sum / sampleCount, nil
}
