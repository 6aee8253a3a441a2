// Relay Hub - device/dashboard WebSocket relay
//
// This is the main entry point for the relay hub. Devices connect over
// WebSocket to report sensor readings and receive commands; dashboards
// connect to observe state; a small REST surface issues commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nerrad567/relayhub/internal/api"
	"github.com/nerrad567/relayhub/internal/device"
	"github.com/nerrad567/relayhub/internal/infrastructure/config"
	"github.com/nerrad567/relayhub/internal/infrastructure/influxdb"
	"github.com/nerrad567/relayhub/internal/infrastructure/logging"
	"github.com/nerrad567/relayhub/internal/infrastructure/mqtt"
	"github.com/nerrad567/relayhub/internal/relay"
	"github.com/nerrad567/relayhub/internal/state"
	"github.com/nerrad567/relayhub/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting relay hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	engine, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	// Background goroutines (heartbeat, telemetry) stop on bgCancel.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	var wg sync.WaitGroup

	var sinks []telemetry.Sink

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		sinks = append(sinks, telemetry.NewMQTTMirror(mqttClient, mqttClient.Topics()))
		ingress := telemetry.NewCommandIngress(mqttClient, engine, mqttClient.Topics(), mqttClient.DefaultQoS(), log.Component("telemetry"))
		if err := ingress.Start(); err != nil {
			return fmt.Errorf("starting MQTT command ingress: %w", err)
		}
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		sinks = append(sinks, telemetry.NewInfluxRecorder(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	if len(sinks) > 0 {
		dispatcher := telemetry.NewDispatcher(telemetry.DefaultQueueSize, log.Component("telemetry"), sinks...)
		engine.AddObserver(dispatcher)
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatcher.Run(bgCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.RunHeartbeat(bgCtx, cfg.GetHeartbeatInterval())
	}()

	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log.Component("api"),
		Engine:  engine,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	if err := healthCheck(ctx, server, mqttClient, influxClient); err != nil {
		server.Close()
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := server.Close(); err != nil {
		log.Error("error closing API server", "error", err)
	}
	bgCancel()
	wg.Wait()

	log.Info("relay hub stopped")
	return nil
}

// buildEngine wires the state store and device registry into a relay engine.
func buildEngine(cfg *config.Config, log *logging.Logger) (*relay.Engine, error) {
	defaults, err := state.FieldsFromMap(cfg.State.Defaults)
	if err != nil {
		return nil, fmt.Errorf("loading state defaults: %w", err)
	}
	store := state.New(defaults, nil)

	registry, err := device.NewRegistry(device.RecordsFromConfig(cfg.Devices))
	if err != nil {
		return nil, fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry initialised", "devices", registry.Count(), "state_fields", store.Len())

	engine, err := relay.NewEngine(relay.Deps{
		State:   store,
		Devices: registry,
		Logger:  log.Component("relay"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating relay engine: %w", err)
	}
	return engine, nil
}

func getConfigPath() string {
	if path := os.Getenv("RELAYHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func healthCheck(ctx context.Context, server *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
