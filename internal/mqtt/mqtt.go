// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/telemetry"
)

// Topic is the MQTT topic for per-cycle readings.
const Topic = "sensors/obstacle/readings"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/obstacle/system"

// Publisher publishes readings and lifecycle events to MQTT.
type Publisher interface {
	// Publish sends a cycle reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(r telemetry.Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure for readings.
type Payload struct {
	Obstacle ReadingPayload `json:"obstacle"`
}

// ReadingPayload contains one cycle's readings.
type ReadingPayload struct {
	Timestamp   string `json:"timestamp"`
	Distance    int    `json:"distance"`
	Regime      string `json:"regime"`
	Light       int    `json:"light"`
	Temperature int    `json:"temperature"`
}

// FormatPayload creates the JSON payload for a cycle reading.
func FormatPayload(r telemetry.Reading) ([]byte, error) {
	payload := Payload{
		Obstacle: ReadingPayload{
			Timestamp:   r.Time.UTC().Format(time.RFC3339),
			Distance:    r.Distance,
			Regime:      string(r.Regime),
			Light:       r.Light,
			Temperature: r.Temperature,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
