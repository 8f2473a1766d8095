package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Node     NodeConfig     `mapstructure:"node"`
	Baseline BaselineConfig `mapstructure:"baseline"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Etcd     EtcdConfig     `mapstructure:"etcd"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// NodeConfig identifies this instance for registration and queue consumers
type NodeConfig struct {
	ID string `mapstructure:"id"` // Unique node identifier
	// AdvertiseAddress is the address other services use to reach this
	// node. Useful in containers where the bind address is 0.0.0.0.
	AdvertiseAddress string `mapstructure:"advertise_address"`
}

// BaselineConfig controls the per-signal calculators
type BaselineConfig struct {
	WindowSize        int `mapstructure:"window_size"`        // Samples per rolling window (default: 168)
	SeasonalityPeriod int `mapstructure:"seasonality_period"` // Hours per cycle (default: 24)
}

// AlertConfig controls anomaly alert emission
type AlertConfig struct {
	Enabled   bool    `mapstructure:"enabled"`   // Publish alerts to the queue
	Threshold float64 `mapstructure:"threshold"` // |z-score| at or above this emits an alert
	Subject   string  `mapstructure:"subject"`   // Queue subject for alert events
}

// IngestConfig controls the queue sample consumer
type IngestConfig struct {
	Enabled bool   `mapstructure:"enabled"` // Consume samples from the queue
	Subject string `mapstructure:"subject"` // Queue subject carrying sample JSON
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// ConsumerGroup is the durable consumer group name: the NATS durable
	// consumer name, and the default Redis/Kafka group when the
	// backend-specific fields below are unset.
	ConsumerGroup string `mapstructure:"consumer_group"`

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "driftwatch")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "driftwatch-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// EtcdConfig represents etcd registration configuration
type EtcdConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// SnapshotConfig controls on-disk baseline snapshots
type SnapshotConfig struct {
	Dir      string        `mapstructure:"dir"`      // Snapshot directory
	Interval time.Duration `mapstructure:"interval"` // Snapshot cadence; 0 disables the worker
	Keep     int           `mapstructure:"keep"`     // Snapshots retained on disk
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Baseline.Validate(); err != nil {
		return fmt.Errorf("baseline config: %w", err)
	}

	if err := c.Alert.Validate(); err != nil {
		return fmt.Errorf("alert config: %w", err)
	}

	if err := c.Etcd.Validate(); err != nil {
		return fmt.Errorf("etcd config: %w", err)
	}

	if err := c.Snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates baseline configuration
func (c *BaselineConfig) Validate() error {
	if c.WindowSize < 2 {
		return fmt.Errorf("baseline.window_size must be at least 2")
	}

	if c.SeasonalityPeriod < 1 {
		return fmt.Errorf("baseline.seasonality_period must be at least 1")
	}

	if c.WindowSize < c.SeasonalityPeriod*2 {
		return fmt.Errorf("baseline.window_size must cover at least two seasonality periods")
	}

	return nil
}

// Validate validates alert configuration
func (c *AlertConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Threshold <= 0 {
		return fmt.Errorf("alert.threshold must be positive")
	}

	if c.Subject == "" {
		return fmt.Errorf("alert.subject is required when alerts are enabled")
	}

	return nil
}

// Validate validates etcd configuration
func (c *EtcdConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if len(c.Endpoints) == 0 {
		return fmt.Errorf("etcd.endpoints is required")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("etcd.dial_timeout must be positive")
	}

	return nil
}

// Validate validates snapshot configuration
func (c *SnapshotConfig) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("snapshot.interval cannot be negative")
	}

	if c.Interval > 0 && c.Dir == "" {
		return fmt.Errorf("snapshot.dir is required when snapshots are enabled")
	}

	if c.Keep < 1 {
		return fmt.Errorf("snapshot.keep must be at least 1")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
