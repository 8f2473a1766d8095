package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")               // Current directory
		v.AddConfigPath("./configs")       // Project configs directory
		v.AddConfigPath("/etc/driftwatch") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("DRIFTWATCH")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8084)

	// Node defaults
	v.SetDefault("node.id", "driftd-default-node")

	// Baseline defaults: one week of hourly samples, daily cycle
	v.SetDefault("baseline.window_size", 168)
	v.SetDefault("baseline.seasonality_period", 24)

	// Alert defaults
	v.SetDefault("alert.enabled", true)
	v.SetDefault("alert.threshold", 3.0)
	v.SetDefault("alert.subject", "driftwatch.alerts")

	// Ingest defaults
	v.SetDefault("ingest.enabled", true)
	v.SetDefault("ingest.subject", "driftwatch.samples")

	// Queue defaults
	v.SetDefault("queue.url", "nats://localhost:4222")
	v.SetDefault("queue.consumer_group", "driftwatch-scoring")

	// Etcd defaults
	v.SetDefault("etcd.enabled", false)
	v.SetDefault("etcd.endpoints", []string{"http://localhost:2379"})
	v.SetDefault("etcd.dial_timeout", "5s")

	// Snapshot defaults
	v.SetDefault("snapshot.dir", "./data/snapshots")
	v.SetDefault("snapshot.interval", "5m")
	v.SetDefault("snapshot.keep", 3)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8084,
		},
		Node: NodeConfig{
			ID: "driftd-default-node",
		},
		Baseline: BaselineConfig{
			WindowSize:        168,
			SeasonalityPeriod: 24,
		},
		Alert: AlertConfig{
			Enabled:   true,
			Threshold: 3.0,
			Subject:   "driftwatch.alerts",
		},
		Ingest: IngestConfig{
			Enabled: true,
			Subject: "driftwatch.samples",
		},
		Queue: QueueConfig{
			URL:           "nats://localhost:4222",
			ConsumerGroup: "driftwatch-scoring",
		},
		Etcd: EtcdConfig{
			Enabled:     false,
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Dir:      "./data/snapshots",
			Interval: 5 * time.Minute,
			Keep:     3,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
