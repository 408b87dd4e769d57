// graphd serves the device-graph editor.
//
// It holds one working graph of devices, ports and connections in memory,
// autosaves it to a slot (SQLite, file, S3 or memory), and exposes the
// editing operations over HTTP with a WebSocket change feed. Commits are
// kept as a history in SQLite and can optionally be mirrored to MQTT and
// InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/micom7/graph/internal/api"
	"github.com/micom7/graph/internal/audit"
	"github.com/micom7/graph/internal/graph"
	"github.com/micom7/graph/internal/infrastructure/config"
	"github.com/micom7/graph/internal/infrastructure/database"
	"github.com/micom7/graph/internal/infrastructure/influxdb"
	"github.com/micom7/graph/internal/infrastructure/logging"
	"github.com/micom7/graph/internal/infrastructure/mqtt"
	"github.com/micom7/graph/internal/metrics"
	"github.com/micom7/graph/internal/notify"
	"github.com/micom7/graph/internal/persistence"
	"github.com/micom7/graph/internal/workspace"
	"github.com/micom7/graph/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// shutdownFlushTimeout bounds the final autosave on shutdown.
const shutdownFlushTimeout = 5 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting graphd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, source, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "source", source)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database (sqlite backend or commit history)
	var db *database.DB
	if cfg.UsesDatabase() {
		db, err = openDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database ready", "path", cfg.Database.Path)
	}

	slot, err := openSlot(ctx, cfg.Persistence, db)
	if err != nil {
		return fmt.Errorf("opening autosave slot: %w", err)
	}
	log.Info("autosave slot ready",
		"backend", cfg.Persistence.Backend,
		"slot", slot.Name(),
		"compressed", cfg.Persistence.Compress,
	)

	// Editor
	seed := seedCatalog(cfg)
	editor := graph.NewEditor(
		graph.WithCatalog(seed),
		graph.WithDirectionCheck(cfg.Editor.EnforceDirections),
	)
	editor.SetLogger(log)

	registry := metrics.NewRegistry()
	editor.Subscribe(registry.ObserveEvent)

	// Commit history, subscribed before Restore so the restore is recorded.
	var history *audit.SQLiteRepository
	if cfg.History.Enabled {
		history = audit.NewSQLiteRepository(db.DB)
		recorder := audit.NewRecorder(history, cfg.History.Retain, audit.DefaultQueueSize)
		recorder.SetLogger(log)
		recorder.Start(context.Background())
		defer func() {
			recorder.Stop()
			log.Info("history recorder stopped",
				"recorded", recorder.Recorded(),
				"dropped", recorder.Dropped(),
				"failed", recorder.Failed(),
			)
		}()
		editor.Subscribe(recorder.Observe)
		log.Info("commit history enabled", "retain", cfg.History.Retain)
	}

	// Optional InfluxDB sink, connected before the autosaver so save
	// results reach it from the first save.
	var influxClient *influxdb.Client
	var stats *notify.Stats
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
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
		stats = notify.NewStats(influxClient, cfg.Project.ID)
		editor.Subscribe(stats.Observe)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Autosave
	saver := persistence.NewAutosaver(slot, editor.Snapshot,
		persistence.WithDebounce(cfg.GetDebounce()),
		persistence.WithSaveHook(func(res persistence.SaveResult) {
			registry.ObserveSave(res)
			if stats != nil {
				stats.ObserveSave(res)
			}
		}),
	)
	saver.SetLogger(log)

	ws := workspace.New(editor, saver, seed)
	ws.SetLogger(log)

	// Restore before subscribing the autosaver, so the restore itself can
	// never schedule a write.
	restored, err := ws.Restore(ctx)
	switch {
	case err != nil:
		log.Warn("autosave slot unreadable, starting a new project", "slot", slot.Name(), "error", err)
	case restored:
		log.Info("graph restored from autosave", "slot", slot.Name())
	default:
		log.Info("no autosave found, starting a new project", "slot", slot.Name())
	}
	registry.SetGraphStats(editor.Stats())
	editor.Subscribe(saver.Observe)

	saverCtx, stopSaver := context.WithCancel(context.Background())
	saverDone := make(chan struct{})
	go func() {
		defer close(saverDone)
		saver.Run(saverCtx)
	}()
	defer func() {
		stopSaver()
		<-saverDone
	}()

	// Optional MQTT mirror
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		var notifier *notify.MQTT
		mqttClient, notifier, err = startMQTT(ctx, cfg, editor, log)
		if err != nil {
			return err
		}
		defer func() {
			// Drain queued events before the client goes away.
			notifier.Stop()
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	// HTTP API
	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Metrics:   cfg.Metrics,
		Logger:    log,
		Workspace: ws,
		Registry:  registry,
		DB:        db,
		Version:   version,
	}
	// Assigned only when present, so the interfaces stay nil otherwise.
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if influxClient != nil {
		deps.InfluxDB = influxClient
	}
	if history != nil {
		deps.History = history
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal", "address", server.Addr())

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// The last edits may still be inside the debounce window.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	defer cancel()
	if err := ws.Flush(flushCtx); err != nil {
		log.Error("final autosave failed", "error", err)
	}

	log.Info("graphd stopped")
	return nil
}

// loadConfig reads the file named by GRAPH_CONFIG, or falls back to the
// built-in defaults. It returns a description of where the config came from.
func loadConfig() (*config.Config, string, error) {
	if path := os.Getenv("GRAPH_CONFIG"); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	cfg, err := config.Default()
	return cfg, "defaults", err
}

// openDatabase opens the SQLite database and applies the embedded schema.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	migrations.Register()
	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// openSlot builds the autosave slot for the configured backend.
func openSlot(ctx context.Context, cfg config.PersistenceConfig, db *database.DB) (persistence.Slot, error) {
	var slot persistence.Slot
	switch cfg.Backend {
	case config.BackendSQLite:
		if db == nil {
			return nil, errors.New("sqlite backend needs a database")
		}
		slot = persistence.NewSQLiteSlot(db, cfg.Slot)
	case config.BackendFile:
		slot = persistence.NewFileSlot(cfg.Slot, cfg.File.Path)
	case config.BackendS3:
		s3Slot, err := persistence.NewS3Slot(ctx, persistence.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, cfg.Slot)
		if err != nil {
			return nil, err
		}
		slot = s3Slot
	case config.BackendMemory:
		slot = persistence.NewMemorySlot(cfg.Slot)
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", cfg.Backend)
	}

	if cfg.Compress {
		slot = persistence.Compressed(slot)
	}
	return slot, nil
}

// seedCatalog returns the catalogue installed on first start and on new
// project: the configured one, the built-in one, or none.
func seedCatalog(cfg *config.Config) []graph.DeviceType {
	if !cfg.Editor.SeedCatalog {
		return nil
	}
	if len(cfg.Catalog) == 0 {
		return graph.DefaultCatalog()
	}
	out := make([]graph.DeviceType, 0, len(cfg.Catalog))
	for _, dt := range cfg.Catalog {
		out = append(out, graph.DeviceType(dt))
	}
	return out
}

// startMQTT connects to the broker and starts mirroring commits.
func startMQTT(ctx context.Context, cfg *config.Config, editor *graph.Editor, log *logging.Logger) (*mqtt.Client, *notify.MQTT, error) {
	topics := mqtt.Topics{Project: cfg.Project.ID}
	client, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	notifier := notify.NewMQTT(client, topics, client.QoS(), editor.Stats, notify.DefaultQueueSize)
	notifier.SetLogger(log)
	if err := notifier.Start(ctx); err != nil {
		client.Close() //nolint:errcheck // Already failing
		return nil, nil, fmt.Errorf("starting MQTT notifier: %w", err)
	}
	editor.Subscribe(notifier.Observe)
	return client, notifier, nil
}
