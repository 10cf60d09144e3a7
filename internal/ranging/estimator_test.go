package ranging

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/hal"
)

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// newTestEstimator wires an Estimator to fakes with the given scripted
// readings. Readings alternate ambient, obstacle, ambient, obstacle, ...
func newTestEstimator(readings []int) (*Estimator, *hal.FakeADC, *hal.FakePin, *hal.FakeClock) {
	clock := hal.NewFakeClock(testStart)
	adc := hal.NewFakeADC(readings)
	emitter := hal.NewFakePin(clock)
	e := NewEstimator(adc, emitter, clock, time.Millisecond)
	return e, adc, emitter, clock
}

func TestEstimateMeanOfDifferentials(t *testing.T) {
	tests := []struct {
		name     string
		readings []int
		samples  int
		want     int
	}{
		{
			name:     "uniform strong reflection",
			readings: []int{300, 100, 300, 100, 300, 100, 300, 100, 300, 100},
			samples:  5,
			want:     200,
		},
		{
			name:     "truncated mean",
			readings: []int{50, 48, 60, 58, 55, 54, 45, 44, 50, 49}, // differentials 2,2,1,1,1 -> 7/5
			samples:  5,
			want:     1,
		},
		{
			name:     "single sample",
			readings: []int{512, 500},
			samples:  1,
			want:     12,
		},
		{
			name:     "negative differential means no obstacle",
			readings: []int{100, 150, 100, 150},
			samples:  2,
			want:     -50,
		},
		{
			name:     "mixed signs",
			readings: []int{100, 90, 100, 110}, // differentials 10, -10
			samples:  2,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _, _ := newTestEstimator(tt.readings)
			got, err := e.Estimate(tt.samples)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Estimate(%d) = %d, want %d", tt.samples, got, tt.want)
			}
		})
	}
}

func TestEstimateRejectsInvalidSampleCount(t *testing.T) {
	e, _, _, _ := newTestEstimator([]int{300, 100})

	for _, n := range []int{0, -1, -100} {
		_, err := e.Estimate(n)
		if !errors.Is(err, ErrInvalidSampleCount) {
			t.Errorf("Estimate(%d): got %v, want ErrInvalidSampleCount", n, err)
		}
	}
}

func TestEstimateNoOverflowAtFullScale(t *testing.T) {
	// 100 samples at the full 10-bit differential must not overflow the sum.
	readings := make([]int, 200)
	for i := 0; i < 200; i += 2 {
		readings[i] = 1023 // ambient
		readings[i+1] = 0  // obstacle
	}

	e, _, _, _ := newTestEstimator(readings)
	got, err := e.Estimate(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1023 {
		t.Errorf("Estimate(100) = %d, want 1023", got)
	}
}

func TestEstimateTogglesEmitterPairwise(t *testing.T) {
	e, _, emitter, _ := newTestEstimator([]int{300, 100, 300, 100, 300, 100})

	if _, err := e.Estimate(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 toggles per sample: off, on, off, on, off, on
	if len(emitter.Writes) != 6 {
		t.Fatalf("expected 6 emitter writes, got %d", len(emitter.Writes))
	}
	for i, w := range emitter.Writes {
		wantHigh := i%2 == 1
		if w.High != wantHigh {
			t.Errorf("write %d: got high=%v, want %v", i, w.High, wantHigh)
		}
	}

	// The emitter is left on after the call.
	if !emitter.Level() {
		t.Error("emitter should be left on after Estimate")
	}
}

func TestEstimateSettlesBeforeEachRead(t *testing.T) {
	e, _, _, clock := newTestEstimator([]int{300, 100, 300, 100})

	if _, err := e.Estimate(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 4 {
		t.Fatalf("expected 4 settle waits, got %d", len(sleeps))
	}
	for i, d := range sleeps {
		if d != time.Millisecond {
			t.Errorf("settle %d: got %v, want 1ms", i, d)
		}
	}
}

func TestEstimateAccumulatorResetsBetweenCalls(t *testing.T) {
	// Two identical calls must return identical results; a shared
	// accumulator would drift the second result upward.
	e, adc, _, _ := newTestEstimator([]int{300, 100, 300, 100, 300, 100})

	first, err := e.Estimate(3)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	adc.Reset()
	second, err := e.Estimate(3)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if first != second {
		t.Errorf("results drifted across calls: first=%d second=%d", first, second)
	}
}

func TestEstimateReadError(t *testing.T) {
	e, adc, _, _ := newTestEstimator([]int{300, 100})
	adc.ReadError = errors.New("simulated error")

	_, err := e.Estimate(5)
	if err == nil {
		t.Fatal("expected error from failing reader")
	}
}

func TestEstimateEmitterError(t *testing.T) {
	clock := hal.NewFakeClock(testStart)
	adc := hal.NewFakeADC([]int{300, 100})
	emitter := hal.NewFakePin(clock)
	emitter.SetError = errors.New("simulated error")
	e := NewEstimator(adc, emitter, clock, time.Millisecond)

	_, err := e.Estimate(5)
	if err == nil {
		t.Fatal("expected error from failing emitter")
	}
}

func TestNewEstimatorDefaultSettle(t *testing.T) {
	clock := hal.NewFakeClock(testStart)
	e := NewEstimator(hal.NewFakeADC([]int{1, 0}), hal.NewFakePin(clock), clock, 0)
	if e.settle != DefaultSettle {
		t.Errorf("settle: got %v, want %v", e.settle, DefaultSettle)
	}
}
