// Ostiary Core - Physical Access Control Platform
//
// This is the main entry point for the Ostiary Core application. It
// wires the decision engine to its configuration store, the door
// gateway (MQTT), the audit trail, and the operator API, then waits
// for a shutdown signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ostiary/ostiary-core/migrations"

	"github.com/ostiary/ostiary-core/internal/accesspoint"
	"github.com/ostiary/ostiary-core/internal/api"
	"github.com/ostiary/ostiary-core/internal/audit"
	"github.com/ostiary/ostiary-core/internal/auth"
	"github.com/ostiary/ostiary-core/internal/decision"
	"github.com/ostiary/ostiary-core/internal/directory"
	"github.com/ostiary/ostiary-core/internal/gateway"
	"github.com/ostiary/ostiary-core/internal/infrastructure/config"
	"github.com/ostiary/ostiary-core/internal/infrastructure/database"
	"github.com/ostiary/ostiary-core/internal/infrastructure/influxdb"
	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
	"github.com/ostiary/ostiary-core/internal/infrastructure/mqtt"
	"github.com/ostiary/ostiary-core/internal/rules"
	"github.com/ostiary/ostiary-core/internal/schedule"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Ostiary Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Repositories
	dirRepo := directory.NewSQLiteRepository(db.DB)
	schRepo := schedule.NewSQLiteRepository(db.DB)
	ptRepo := accesspoint.NewSQLiteRepository(db.DB)
	rlRepo := rules.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	opRepo := auth.NewSQLiteOperatorRepository(db.DB)

	// First-boot admin account
	if _, seedErr := auth.SeedAdmin(ctx, opRepo, log); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Configuration snapshots
	loader := decision.NewStoreLoader(dirRepo, schRepo, ptRepo, rlRepo, log)
	provider := decision.NewProvider(loader, cfg.SnapshotRefreshInterval(), log)
	if refreshErr := provider.Refresh(ctx); refreshErr != nil {
		return fmt.Errorf("loading initial snapshot: %w", refreshErr)
	}
	go provider.Run(ctx)
	log.Info("configuration snapshot loaded")

	// Decision engine
	engine := decision.NewEngine(provider, cfg.DecisionBudget(), cfg.InterlockReleaseTimeout(), log)
	defer engine.Close()

	// Connect to InfluxDB (optional)
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
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "org", cfg.InfluxDB.Org)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Audit trail: every committed verdict is recorded
	engine.AddSink(audit.NewRecorder(auditRepo, influxClient, log))

	// Connect to MQTT broker and start the door gateway
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
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

	bridge := gateway.New(mqttClient, engine, influxClient, log)
	if startErr := bridge.Start(); startErr != nil {
		return fmt.Errorf("starting door gateway: %w", startErr)
	}
	log.Info("door gateway started")

	// Operator API
	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Directory: dirRepo,
		Schedules: schRepo,
		Points:    ptRepo,
		Rules:     rlRepo,
		Audit:     auditRepo,
		Operators: opRepo,
		Engine:    engine,
		Snapshots: provider,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	// Stream live verdicts to WebSocket clients
	engine.AddSink(server.Hub())
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	// Deferred Close() calls run in reverse order:
	// API server, MQTT, InfluxDB (if enabled), engine, database.
	log.Info("Ostiary Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the OSTIARY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("OSTIARY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
