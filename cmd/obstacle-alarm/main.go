// Command obstacle-alarm estimates obstacle distance with a differential IR
// sensor and drives a proximity buzzer, publishing readings to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/obstacle-alarm/internal/alert"
	"github.com/sweeney/obstacle-alarm/internal/config"
	"github.com/sweeney/obstacle-alarm/internal/hal"
	"github.com/sweeney/obstacle-alarm/internal/mqtt"
	"github.com/sweeney/obstacle-alarm/internal/ranging"
	"github.com/sweeney/obstacle-alarm/internal/status"
	"github.com/sweeney/obstacle-alarm/internal/storage"
	"github.com/sweeney/obstacle-alarm/internal/telemetry"
	"github.com/sweeney/obstacle-alarm/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/obstacle-alarm.yaml", "YAML configuration file")
	poll := flag.Duration("poll", 500*time.Millisecond, "Control cycle interval")
	samples := flag.Int("samples", 5, "Paired IR samples per distance estimate")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	pinEmitter := flag.Int("pin-emitter", hal.DefaultPinEmitter, "BCM pin number for the IR emitter")
	pinBuzzer := flag.Int("pin-buzzer", hal.DefaultPinBuzzer, "BCM pin number for the buzzer")
	serialPort := flag.String("serial", "", "Serial telemetry port (empty to disable)")
	dbPath := flag.String("db", "", "SQLite cycle log path (empty to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	printDistance := flag.Bool("print-distance", false, "Print one distance estimate and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// Flags set on the command line override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.Poll = *poll
		case "samples":
			cfg.Sampling.Samples = *samples
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "pin-emitter":
			cfg.Pins.Emitter = *pinEmitter
		case "pin-buzzer":
			cfg.Pins.Buzzer = *pinBuzzer
		case "serial":
			cfg.Serial.Port = *serialPort
		case "db":
			cfg.Storage.Path = *dbPath
		case "http":
			cfg.HTTP.Addr = *httpAddr
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	ws := resolveWSBroker(*wsBroker, cfg.MQTT.Broker)
	if err := run(cfg, *printDistance, ws); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printDistance bool, wsBroker string) error {
	clock := hal.SystemClock{}

	// Initialize the ADC and GPIO outputs
	adc, err := hal.NewADS1115(cfg.ADC.Bus)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer adc.Close()

	irPin, err := adc.Channel(cfg.ADC.IRChannel)
	if err != nil {
		return fmt.Errorf("init ir channel: %w", err)
	}
	defer irPin.Close()

	emitter, err := hal.NewRealOutput(cfg.Pins.Chip, cfg.Pins.Emitter)
	if err != nil {
		return fmt.Errorf("init emitter: %w", err)
	}
	defer emitter.Close()

	est := ranging.NewEstimator(irPin, emitter, clock, cfg.Sampling.Settle)

	// Print distance mode
	if printDistance {
		distance, err := est.Estimate(cfg.Sampling.Samples)
		if err != nil {
			return fmt.Errorf("estimate distance: %w", err)
		}
		fmt.Printf("distance: %d (%s)\n", distance, alert.RegimeFor(distance))
		return nil
	}

	buzzer, err := hal.NewRealOutput(cfg.Pins.Chip, cfg.Pins.Buzzer)
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer buzzer.Close()

	ctrl := alert.NewController(buzzer, clock, cfg.Sampling.PulseUnit)

	// Telemetry channels share the ADC with the IR photodiode.
	lightPin, err := adc.Channel(cfg.ADC.LightChannel)
	if err != nil {
		return fmt.Errorf("init light channel: %w", err)
	}
	defer lightPin.Close()

	tempPin, err := adc.Channel(cfg.ADC.TempChannel)
	if err != nil {
		return fmt.Errorf("init temp channel: %w", err)
	}
	defer tempPin.Close()

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		realPub, err := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer realPub.Close()
		publisher = realPub
		mqttStatus = realPub
	}

	// Optional telemetry sinks
	var sinks []telemetry.Sink
	if cfg.Serial.Port != "" {
		serialSink, err := telemetry.NewSerialSink(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return fmt.Errorf("init serial: %w", err)
		}
		defer serialSink.Close()
		sinks = append(sinks, serialSink)
		log.Printf("serial telemetry on %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
	}
	var store *storage.Store
	if cfg.Storage.Path != "" {
		store, err = storage.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
		log.Printf("cycle log at %s", cfg.Storage.Path)
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Samples:     cfg.Sampling.Samples,
		SettleUs:    cfg.Sampling.Settle.Microseconds(),
		PulseUnitUs: cfg.Sampling.PulseUnit.Microseconds(),
		Broker:      cfg.MQTT.Broker,
		WSBroker:    wsBroker,
		HTTPAddr:    cfg.HTTP.Addr,
		SerialPort:  cfg.Serial.Port,
		DBPath:      cfg.Storage.Path,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		if store != nil {
			srv.SetRecentSource(store)
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: poll=%v samples=%d broker=%s heartbeat=%v",
		cfg.Poll, cfg.Sampling.Samples, cfg.MQTT.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(est, ctrl, lightPin, tempPin, publisher, mqttStatus, sinks, tracker,
		cfg.Sampling.Samples, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(est *ranging.Estimator, ctrl *alert.Controller, light, temp hal.AnalogReader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, sinks []telemetry.Sink, tracker *status.Tracker, samples int, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	var counts status.Counts

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    signalName,
					Retained:  true,
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					snap := tracker.Snapshot()
					event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()
			distance, err := est.Estimate(samples)
			if err != nil {
				log.Printf("estimate error: %v", err)
				continue
			}

			regime := alert.RegimeFor(distance)
			if err := ctrl.Update(distance); err != nil {
				log.Printf("buzzer error: %v", err)
				// Keep publishing even if the buzzer fails
			}

			reading := telemetry.Reading{
				Time:     t,
				Distance: distance,
				Regime:   regime,
			}
			if light != nil {
				if v, err := light.Read(); err != nil {
					log.Printf("light read error: %v", err)
				} else {
					reading.Light = v
				}
			}
			if temp != nil {
				if v, err := temp.Read(); err != nil {
					log.Printf("temp read error: %v", err)
				} else {
					reading.Temperature = v
				}
			}

			if publisher != nil {
				if err := publisher.Publish(reading); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}
			for _, sink := range sinks {
				if err := sink.Record(reading); err != nil {
					log.Printf("telemetry record error: %v", err)
				}
			}

			counts.Cycles++
			switch regime {
			case alert.RegimeOff:
				counts.Off++
			case alert.RegimePulsed:
				counts.Pulsed++
			case alert.RegimeContinuous:
				counts.Continuous++
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(distance, regime, counts)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: uptime=%v cycles=%d off=%d pulsed=%d continuous=%d",
					t.Sub(startTime).Truncate(time.Second), counts.Cycles, counts.Off, counts.Pulsed, counts.Continuous)

				if publisher != nil {
					hbEvent := mqtt.SystemEvent{
						Timestamp: t,
						Event:     "HEARTBEAT",
					}
					if tracker != nil {
						// Refresh network info for heartbeat
						if net := readNetworkInfo(); net != nil {
							tracker.SetNetwork(net)
						}
						snap := tracker.Snapshot()
						hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
