package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/alert"
	"github.com/sweeney/obstacle-alarm/internal/telemetry"
)

func testReading() telemetry.Reading {
	return telemetry.Reading{
		Time:        time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Distance:    200,
		Regime:      alert.RegimeContinuous,
		Light:       512,
		Temperature: 330,
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(testReading())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Obstacle.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Obstacle.Timestamp)
	}
	if parsed.Obstacle.Distance != 200 {
		t.Errorf("unexpected distance: %d", parsed.Obstacle.Distance)
	}
	if parsed.Obstacle.Regime != "CONTINUOUS" {
		t.Errorf("unexpected regime: %s", parsed.Obstacle.Regime)
	}
	if parsed.Obstacle.Light != 512 {
		t.Errorf("unexpected light: %d", parsed.Obstacle.Light)
	}
	if parsed.Obstacle.Temperature != 330 {
		t.Errorf("unexpected temperature: %d", parsed.Obstacle.Temperature)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	payload, err := FormatPayload(testReading())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"obstacle":{"timestamp":"2026-02-02T22:18:12Z","distance":200,"regime":"CONTINUOUS","light":512,"temperature":330}}`
	if string(payload) != want {
		t.Errorf("payload:\n got %s\nwant %s", payload, want)
	}
}

func TestFormatPayloadNegativeDistance(t *testing.T) {
	r := testReading()
	r.Distance = -40
	r.Regime = alert.RegimeOff

	payload, err := FormatPayload(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Obstacle.Distance != -40 {
		t.Errorf("unexpected distance: %d", parsed.Obstacle.Distance)
	}
	if parsed.Obstacle.Regime != "OFF" {
		t.Errorf("unexpected regime: %s", parsed.Obstacle.Regime)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	r := testReading()
	r.Time = time.Date(2026, 2, 2, 14, 0, 0, 0, loc)

	payload, err := FormatPayload(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Obstacle.Timestamp != "2026-02-02T12:00:00Z" {
		t.Errorf("timestamp not converted to UTC: %s", parsed.Obstacle.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != want {
		t.Errorf("payload:\n got %s\nwant %s", payload, want)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "HEARTBEAT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["system"]["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	event := SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		RawPayload: raw,
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "sensors/obstacle/readings" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "sensors/obstacle/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(testReading()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Readings) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(f.Readings))
	}
	if f.Readings[0].Distance != 200 {
		t.Errorf("unexpected distance: %d", f.Readings[0].Distance)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}

	var parsed Payload
	if err := json.Unmarshal(f.Payloads[0], &parsed); err != nil {
		t.Errorf("payload is not valid JSON: %v", err)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(testReading()); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Readings) != 0 {
		t.Error("failed publish should not record the reading")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "STARTUP",
		Retained:  true,
	}
	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	if f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("unexpected event: %s", f.SystemEvents[0].Event)
	}
	if !f.SystemEvents[0].Retained {
		t.Error("retained flag lost")
	}
}

func TestFakePublisherPreservesOrder(t *testing.T) {
	f := NewFakePublisher()

	for i, d := range []int{5, 80, 200} {
		r := testReading()
		r.Distance = d
		if err := f.Publish(r); err != nil {
			t.Fatalf("reading %d: %v", i, err)
		}
	}

	want := []int{5, 80, 200}
	for i, r := range f.Readings {
		if r.Distance != want[i] {
			t.Errorf("reading %d: got distance %d, want %d", i, r.Distance, want[i])
		}
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(testReading())
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Connected = true
	f.Close()

	f.Reset()

	if len(f.Readings) != 0 || len(f.Payloads) != 0 {
		t.Error("Reset should clear readings")
	}
	if len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("Reset should clear system events")
	}
	if f.Closed || f.Connected {
		t.Error("Reset should clear flags")
	}
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	payload, err := FormatPayload(testReading())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	again, err := json.Marshal(parsed)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(again) != string(payload) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", again, payload)
	}
}
