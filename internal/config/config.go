package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go-measure-pipeline/internal/errors"
)

// Config is the complete pipeline configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Log      LogConfig      `mapstructure:"log"`
	S3       S3Config       `mapstructure:"s3"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Export   ExportConfig   `mapstructure:"export"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Retry    RetryConfig    `mapstructure:"retry"`
}

// DatabaseConfig selects the record/summary store
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite3 or pgx
	DSN    string `mapstructure:"dsn"`    // file path for sqlite3, URL for pgx
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IngestConfig configures parsing and query limits
type IngestConfig struct {
	Delimiter      string `mapstructure:"delimiter"`
	InputTimezone  string `mapstructure:"input_timezone"` // zone for timestamps without an offset
	RecentLimit    int    `mapstructure:"recent_limit"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// S3Config configures s3:// sources. Credentials come from the default AWS chain.
type S3Config struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"` // e.g. a MinIO URL
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// KafkaConfig configures summary event publishing. Empty brokers disables it.
type KafkaConfig struct {
	Brokers        []string      `mapstructure:"brokers"`
	Topic          string        `mapstructure:"topic"`
	ClientID       string        `mapstructure:"client_id"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"` // upper bound on one publish
}

// ExportConfig configures summary exports
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// WatchConfig configures drop-directory ingestion
type WatchConfig struct {
	Dir     string        `mapstructure:"dir"`
	Pattern string        `mapstructure:"pattern"`
	Settle  time.Duration `mapstructure:"settle"` // quiet period before a changed file is ingested
}

// RetryConfig configures caller-side retries of storage failures
type RetryConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	InitialDelay      time.Duration `mapstructure:"initial_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "pipeline.db")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("ingest.delimiter", ";")
	v.SetDefault("ingest.input_timezone", "UTC")
	v.SetDefault("ingest.recent_limit", 10)
	v.SetDefault("ingest.max_upload_bytes", 64<<20)

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("kafka.topic", "measurement-summaries")
	v.SetDefault("kafka.client_id", "measure-pipeline")
	v.SetDefault("kafka.publish_timeout", "5s")

	v.SetDefault("export.dir", "outputs")

	v.SetDefault("watch.dir", "incoming")
	v.SetDefault("watch.pattern", "*.csv")
	v.SetDefault("watch.settle", "2s")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("retry.backoff_multiplier", 2.0)
}

// New returns a viper instance with defaults and PIPELINE_* environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads configuration. An explicit path must exist; otherwise pipeline.toml
// is searched for from the working directory upward and is optional.
func Load(path string) (*Config, error) {
	v := New()

	if path == "" {
		path = findProjectConfig()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(configType(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return errors.WithHint(
			errors.Newf("unsupported database driver %q", c.Database.Driver),
			"use sqlite3 or pgx")
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn must not be empty")
	}
	if len([]rune(c.Ingest.Delimiter)) != 1 {
		return errors.Newf("ingest.delimiter must be a single character, got %q", c.Ingest.Delimiter)
	}
	if _, err := c.Ingest.Location(); err != nil {
		return err
	}
	if c.Ingest.RecentLimit <= 0 {
		return errors.Newf("ingest.recent_limit must be positive, got %d", c.Ingest.RecentLimit)
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.Newf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// Location resolves InputTimezone
func (c IngestConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.InputTimezone)
	if err != nil {
		return nil, errors.Wrapf(err, "ingest.input_timezone %q", c.InputTimezone)
	}
	return loc, nil
}

// DelimiterRune returns the delimiter as a rune
func (c IngestConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ';'
}

// findProjectConfig walks up from the working directory looking for pipeline.toml
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, "pipeline.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return "toml"
	}
}

// String renders a one-line summary of the effective config
func (c *Config) String() string {
	return fmt.Sprintf("database=%s(%s) server=%s tz=%s kafka=%v export=%s",
		c.Database.Driver, c.Database.DSN, c.Server.Addr, c.Ingest.InputTimezone,
		c.Kafka.Brokers, c.Export.Dir)
}
