package hal

import (
	"errors"
	"sync"
	"time"
)

// FakeClock is a virtual clock for tests. Sleep advances virtual time
// immediately instead of blocking, so timed behavior can be asserted
// synchronously.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFakeClock creates a FakeClock starting at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances virtual time by d and records the requested duration.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
}

// Advance moves virtual time forward without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sleeps returns the durations passed to Sleep, in order.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// FakeADC is a test double that returns scripted analog readings.
type FakeADC struct {
	// Readings contains scripted values. Each call to Read() consumes the
	// next reading. If readings are exhausted, the last one repeats.
	Readings []int

	// index tracks current position in Readings
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeADC creates a FakeADC with the given readings.
func NewFakeADC(readings []int) *FakeADC {
	return &FakeADC{Readings: readings}
}

// Read returns the next scripted reading.
func (f *FakeADC) Read() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}
	v := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the reader as closed.
func (f *FakeADC) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of readings.
func (f *FakeADC) Reset() {
	f.index = 0
	f.Closed = false
}

// PinWrite is one recorded level change on a FakePin.
type PinWrite struct {
	High bool
	At   time.Time // virtual time of the write, if a clock was attached
}

// FakePin records every level written to it. Attach a FakeClock to get
// timestamps in virtual time, which lets tests assert pulse phase durations.
type FakePin struct {
	// Writes contains every Set call in order.
	Writes []PinWrite

	// SetError, if set, will be returned by Set()
	SetError error

	// Closed tracks if Close was called
	Closed bool

	clock *FakeClock
	level bool
}

// NewFakePin creates a FakePin. clock may be nil.
func NewFakePin(clock *FakeClock) *FakePin {
	return &FakePin{clock: clock}
}

// Set records the level change.
func (p *FakePin) Set(high bool) error {
	if p.SetError != nil {
		return p.SetError
	}
	w := PinWrite{High: high}
	if p.clock != nil {
		w.At = p.clock.Now()
	}
	p.Writes = append(p.Writes, w)
	p.level = high
	return nil
}

// Close marks the pin as closed.
func (p *FakePin) Close() error {
	p.Closed = true
	return nil
}

// Level returns the last written level (false if never written).
func (p *FakePin) Level() bool {
	return p.level
}

// Reset clears recorded writes.
func (p *FakePin) Reset() {
	p.Writes = nil
	p.level = false
	p.Closed = false
	p.SetError = nil
}
