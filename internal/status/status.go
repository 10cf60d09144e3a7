// Package status provides a thread-safe status tracker for the
// obstacle-alarm daemon. It is designed to be read by HTTP handlers and
// embedded in MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/alert"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Samples     int
	SettleUs    int64
	PulseUnitUs int64
	Broker      string
	WSBroker    string
	HTTPAddr    string
	SerialPort  string
	DBPath      string
}

// Counts tracks control cycles per alert regime since startup.
type Counts struct {
	Cycles     int
	Off        int
	Pulsed     int
	Continuous int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Distance      int
	Regime        alert.Regime
	HasReading    bool // false until the first cycle completes
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the latest distance estimate, its regime, and cycle counts.
// Called from runLoop on every cycle.
func (t *Tracker) Update(distance int, regime alert.Regime, counts Counts) {
	t.mu.Lock()
	t.snap.Distance = distance
	t.snap.Regime = regime
	t.snap.HasReading = true
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
