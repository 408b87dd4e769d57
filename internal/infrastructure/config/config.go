package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Persistence backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config is the root configuration structure for graphd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Project     ProjectConfig     `yaml:"project"`
	Database    DatabaseConfig    `yaml:"database"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Editor      EditorConfig      `yaml:"editor"`
	History     HistoryConfig     `yaml:"history"`
	Catalog     []DeviceType      `yaml:"catalog"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	API         APIConfig         `yaml:"api"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ProjectConfig identifies the project being edited. ID prefixes MQTT
// topics and tags InfluxDB points.
type ProjectConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// PersistenceConfig selects where the working graph is autosaved.
type PersistenceConfig struct {
	// Backend is one of sqlite, file, s3 or memory.
	Backend string `yaml:"backend"`

	// Slot is the name the graph is stored under.
	Slot string `yaml:"slot"`

	// DebounceMS is how long to wait after a commit before saving.
	DebounceMS int `yaml:"debounce_ms"`

	// Compress wraps the slot with snappy compression.
	Compress bool `yaml:"compress"`

	File FileSlotConfig `yaml:"file"`
	S3   S3SlotConfig   `yaml:"s3"`
}

// FileSlotConfig configures the file backend.
type FileSlotConfig struct {
	Path string `yaml:"path"`
}

// S3SlotConfig configures the S3 backend. Credentials fall back to the
// standard AWS environment and shared config when left empty.
type S3SlotConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// EditorConfig tunes editing rules.
type EditorConfig struct {
	// EnforceDirections makes Connect drop edges that do not run from an
	// output port to an input port.
	EnforceDirections bool `yaml:"enforce_directions"`

	// SeedCatalog installs Catalog (or the built-in catalogue when Catalog
	// is empty) on first start and on new project.
	SeedCatalog bool `yaml:"seed_catalog"`
}

// HistoryConfig controls the commit history kept in the database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Retain is how many entries to keep; older ones are pruned. Zero
	// keeps everything.
	Retain int `yaml:"retain"`
}

// DeviceType is a catalogue entry in the configuration file.
type DeviceType struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAPH_SECTION_KEY
// For example: GRAPH_DATABASE_PATH, GRAPH_PERSISTENCE_BACKEND
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied, for running without a config file.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			ID:   "default",
			Name: "Device graph",
		},
		Database: DatabaseConfig{
			Path:        "./data/graph.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Persistence: PersistenceConfig{
			Backend:    BackendSQLite,
			Slot:       "graph_autosave",
			DebounceMS: 250,
			File:       FileSlotConfig{Path: "./data/graph_autosave.json"},
			S3:         S3SlotConfig{Region: "us-east-1"},
		},
		Editor: EditorConfig{
			SeedCatalog: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Retain:  10000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graphd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAPH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GRAPH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Persistence
	if v := os.Getenv("GRAPH_PERSISTENCE_BACKEND"); v != "" {
		cfg.Persistence.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("GRAPH_S3_BUCKET"); v != "" {
		cfg.Persistence.S3.Bucket = v
	}

	// History
	if v := os.Getenv("GRAPH_HISTORY_ENABLED"); v != "" {
		cfg.History.Enabled = v == "true" || v == "1"
	}

	// MQTT
	if v := os.Getenv("GRAPH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAPH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAPH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAPH_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAPH_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("GRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Project.ID == "" {
		errs = append(errs, "project.id is required")
	}

	switch c.Persistence.Backend {
	case BackendSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case BackendFile:
		if c.Persistence.File.Path == "" {
			errs = append(errs, "persistence.file.path is required for the file backend")
		}
	case BackendS3:
		if c.Persistence.S3.Bucket == "" {
			errs = append(errs, "persistence.s3.bucket is required for the s3 backend (set GRAPH_S3_BUCKET)")
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Sprintf("persistence.backend %q must be one of sqlite, file, s3, memory", c.Persistence.Backend))
	}
	if c.History.Enabled && c.Persistence.Backend != BackendSQLite && c.Database.Path == "" {
		errs = append(errs, "database.path is required when history is enabled")
	}
	if c.History.Retain < 0 {
		errs = append(errs, "history.retain must not be negative")
	}
	if c.Persistence.Slot == "" {
		errs = append(errs, "persistence.slot is required")
	}
	if c.Persistence.DebounceMS < 0 {
		errs = append(errs, "persistence.debounce_ms must not be negative")
	}

	seen := make(map[string]bool, len(c.Catalog))
	for i, dt := range c.Catalog {
		switch {
		case strings.TrimSpace(dt.Name) == "":
			errs = append(errs, fmt.Sprintf("catalog[%d].name is required", i))
		case seen[dt.Name]:
			errs = append(errs, fmt.Sprintf("catalog[%d].name %q is duplicated", i, dt.Name))
		}
		seen[dt.Name] = true
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// UsesDatabase reports whether the SQLite database has to be opened.
func (c *Config) UsesDatabase() bool {
	return c.Persistence.Backend == BackendSQLite || c.History.Enabled
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetDebounce returns the autosave debounce as a Duration.
func (c *Config) GetDebounce() time.Duration {
	return time.Duration(c.Persistence.DebounceMS) * time.Millisecond
}
