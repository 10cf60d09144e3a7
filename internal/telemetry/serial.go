package telemetry

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud matches the rate the attached display board listens at.
const DefaultBaud = 9600

// LineWriter writes one human-readable line per reading to a stream.
// It is the serial-port telemetry report, kept line-oriented so it can be
// watched with a terminal emulator.
type LineWriter struct {
	w io.Writer
	c io.Closer
}

// NewLineWriter creates a LineWriter on an arbitrary stream. Used by tests
// and by the stdout sink.
func NewLineWriter(w io.Writer) *LineWriter {
	lw := &LineWriter{w: w}
	if c, ok := w.(io.Closer); ok {
		lw.c = c
	}
	return lw
}

// NewSerialSink opens the named serial port and returns a LineWriter on it.
func NewSerialSink(port string, baud int) (*LineWriter, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return NewLineWriter(p), nil
}

// Record writes the reading as one line.
func (l *LineWriter) Record(r Reading) error {
	_, err := fmt.Fprintf(l.w, "%s distance=%d regime=%s light=%d temp=%d\n",
		r.Time.UTC().Format(time.RFC3339), r.Distance, r.Regime, r.Light, r.Temperature)
	if err != nil {
		return fmt.Errorf("write telemetry line: %w", err)
	}
	return nil
}

// Close closes the underlying stream if it is closable.
func (l *LineWriter) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
