// Package telemetry defines the per-cycle reading record and the sinks
// that consume it.
package telemetry

import (
	"time"

	"github.com/sweeney/obstacle-alarm/internal/alert"
)

// Reading is one control cycle's telemetry: the distance estimate, the
// alert regime it selected, and the independently-sourced ambient light and
// temperature readouts. All analog values are raw converter units.
type Reading struct {
	Time        time.Time
	Distance    int
	Regime      alert.Regime
	Light       int
	Temperature int
}

// Sink consumes one reading per control cycle. A failed Record must not
// stop the control loop; callers log and carry on.
type Sink interface {
	Record(r Reading) error
}
