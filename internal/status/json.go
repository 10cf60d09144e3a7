package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the wire shape of a status snapshot, shared by the web
// status endpoint and MQTT system events.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner holds the snapshot fields. Event and Reason are only set
// on MQTT system events.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Timestamp     string       `json:"timestamp"`
	Distance      int          `json:"distance"`
	Regime        string       `json:"regime"`
	Cycles        int          `json:"cycles"`
	Off           int          `json:"off"`
	Pulsed        int          `json:"pulsed"`
	Continuous    int          `json:"continuous"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	MQTTConnected bool         `json:"mqtt_connected"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// NetworkJSON mirrors NetworkInfo for serialization.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway,omitempty"`
	WifiStatus string `json:"wifi_status,omitempty"`
	SSID       string `json:"ssid,omitempty"`
}

// ConfigJSON mirrors Config for serialization.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Samples     int    `json:"samples"`
	SettleUs    int64  `json:"settle_us"`
	PulseUnitUs int64  `json:"pulse_unit_us"`
	Broker      string `json:"broker"`
	WSBroker    string `json:"ws_broker,omitempty"`
	HTTPAddr    string `json:"http_addr"`
	SerialPort  string `json:"serial_port,omitempty"`
	DBPath      string `json:"db_path,omitempty"`
}

func buildInner(s Snapshot) StatusInner {
	regime := "UNKNOWN"
	if s.HasReading {
		regime = string(s.Regime)
	}
	return StatusInner{
		Timestamp:     s.Now.UTC().Format(time.RFC3339),
		Distance:      s.Distance,
		Regime:        regime,
		Cycles:        s.Counts.Cycles,
		Off:           s.Counts.Off,
		Pulsed:        s.Counts.Pulsed,
		Continuous:    s.Counts.Continuous,
		UptimeSeconds: int64(s.Uptime().Seconds()),
		MQTTConnected: s.MQTTConnected,
		Network:       buildNetwork(s.Network),
		Config: ConfigJSON{
			PollMs:      s.Config.PollMs,
			HeartbeatMs: s.Config.HeartbeatMs,
			Samples:     s.Config.Samples,
			SettleUs:    s.Config.SettleUs,
			PulseUnitUs: s.Config.PulseUnitUs,
			Broker:      s.Config.Broker,
			WSBroker:    s.Config.WSBroker,
			HTTPAddr:    s.Config.HTTPAddr,
			SerialPort:  s.Config.SerialPort,
			DBPath:      s.Config.DBPath,
		},
	}
}

func buildNetwork(info *NetworkInfo) *NetworkJSON {
	if info == nil {
		return nil
	}
	return &NetworkJSON{
		Type:       info.Type,
		IP:         info.IP,
		Status:     info.Status,
		Gateway:    info.Gateway,
		WifiStatus: info.WifiStatus,
		SSID:       info.SSID,
	}
}

// FormatJSON renders a snapshot as indented JSON for the status endpoint.
// Marshaling cannot fail for these fixed struct shapes.
func FormatJSON(s Snapshot) []byte {
	out, _ := json.MarshalIndent(StatusJSON{Status: buildInner(s)}, "", "  ")
	return out
}

// FormatStatusEvent renders a snapshot as a compact system event payload
// with the given event name and optional reason.
func FormatStatusEvent(s Snapshot, event, reason string) []byte {
	inner := buildInner(s)
	inner.Event = event
	inner.Reason = reason
	out, _ := json.Marshal(StatusJSON{Status: inner})
	return out
}
