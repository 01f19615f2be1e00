package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/isectech/ctf-datagen/pkg/logging"
	"github.com/isectech/ctf-datagen/pkg/metrics"
)

// EnvPrefix is prepended to every environment override, e.g. CTF_DATAGEN_GENERATOR_SEED.
const EnvPrefix = "CTF_DATAGEN"

// Output formats and compressions understood by the storage layer.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"

	CompressionNone = "none"
	CompressionLZ4  = "lz4"
)

// Config represents application configuration
type Config struct {
	// Generation configuration
	Generator GeneratorConfig `mapstructure:"generator"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`

	// Logging configuration
	Logging logging.Config `mapstructure:"logging"`

	// Metrics configuration
	Metrics metrics.Config `mapstructure:"metrics"`

	// Optional downstream sinks
	Sinks SinksConfig `mapstructure:"sinks"`
}

// GeneratorConfig controls dataset synthesis
type GeneratorConfig struct {
	Seed          int64  `mapstructure:"seed"`
	ReferenceTime string `mapstructure:"reference_time"`
	Parallelism   int    `mapstructure:"parallelism"`
	Verify        bool   `mapstructure:"verify"`
}

// OutputConfig controls how datasets are persisted
type OutputConfig struct {
	Directory   string `mapstructure:"directory"`
	Format      string `mapstructure:"format"`
	Compression string `mapstructure:"compression"`
	Indent      int    `mapstructure:"indent"`
}

// SinksConfig groups the optional publication targets
type SinksConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
}

// ElasticsearchConfig contains Elasticsearch sink configuration
type ElasticsearchConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addresses   []string      `mapstructure:"addresses"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	IndexPrefix string        `mapstructure:"index_prefix"`
	BatchSize   int           `mapstructure:"batch_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// KafkaConfig contains Kafka sink configuration
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
	ClientID     string        `mapstructure:"client_id"`
	BatchSize    int           `mapstructure:"batch_size"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PostgresConfig contains PostgreSQL sink configuration
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Schema   string `mapstructure:"schema"`
}

// DSN builds a lib/pq connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		p.Host, p.Port, p.Database, p.Username, p.Password, p.SSLMode)
}

// Load reads configuration into v from defaults, an optional YAML file and
// the environment. Flags bound to v before the call take precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	config := &Config{}

	// Set default values
	SetDefaults(v)

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read configuration file
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("ctf-datagen")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Unmarshal configuration
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Generator defaults
	v.SetDefault("generator.seed", 42)
	v.SetDefault("generator.reference_time", "")
	v.SetDefault("generator.parallelism", 4)
	v.SetDefault("generator.verify", true)

	// Output defaults
	v.SetDefault("output.directory", "./samples")
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("output.compression", CompressionNone)
	v.SetDefault("output.indent", 2)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.service_name", "ctf-datagen")
	v.SetDefault("logging.development", false)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "ctf_datagen")
	v.SetDefault("metrics.textfile_path", "")

	// Sink defaults
	v.SetDefault("sinks.elasticsearch.enabled", false)
	v.SetDefault("sinks.elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("sinks.elasticsearch.username", "")
	v.SetDefault("sinks.elasticsearch.password", "")
	v.SetDefault("sinks.elasticsearch.index_prefix", "kql")
	v.SetDefault("sinks.elasticsearch.batch_size", 1000)
	v.SetDefault("sinks.elasticsearch.timeout", "30s")
	v.SetDefault("sinks.elasticsearch.max_retries", 3)

	v.SetDefault("sinks.kafka.enabled", false)
	v.SetDefault("sinks.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("sinks.kafka.topic_prefix", "kql")
	v.SetDefault("sinks.kafka.client_id", "ctf-datagen")
	v.SetDefault("sinks.kafka.batch_size", 500)
	v.SetDefault("sinks.kafka.rate_limit", 5000)
	v.SetDefault("sinks.kafka.write_timeout", "10s")

	v.SetDefault("sinks.postgres.enabled", false)
	v.SetDefault("sinks.postgres.host", "localhost")
	v.SetDefault("sinks.postgres.port", 5432)
	v.SetDefault("sinks.postgres.database", "kql")
	v.SetDefault("sinks.postgres.username", "postgres")
	v.SetDefault("sinks.postgres.password", "")
	v.SetDefault("sinks.postgres.ssl_mode", "disable")
	v.SetDefault("sinks.postgres.schema", "public")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Generator.Parallelism < 1 {
		return fmt.Errorf("generator.parallelism must be at least 1, got %d", c.Generator.Parallelism)
	}

	if _, err := c.ReferenceTime(); err != nil {
		return err
	}

	if c.Output.Directory == "" {
		return fmt.Errorf("output directory is required")
	}

	switch c.Output.Format {
	case FormatJSON, FormatMsgpack:
	default:
		return fmt.Errorf("unsupported output format: %q", c.Output.Format)
	}

	switch c.Output.Compression {
	case CompressionNone, CompressionLZ4:
	default:
		return fmt.Errorf("unsupported output compression: %q", c.Output.Compression)
	}

	if c.Output.Indent < 0 {
		return fmt.Errorf("invalid output indent: %d", c.Output.Indent)
	}

	if c.Sinks.Elasticsearch.Enabled && len(c.Sinks.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch sink requires at least one address")
	}

	if c.Sinks.Kafka.Enabled {
		if len(c.Sinks.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka sink requires at least one broker")
		}
		if c.Sinks.Kafka.RateLimit <= 0 {
			return fmt.Errorf("kafka rate limit must be positive")
		}
	}

	if c.Sinks.Postgres.Enabled && c.Sinks.Postgres.Host == "" {
		return fmt.Errorf("postgres sink requires a host")
	}

	return nil
}

// ReferenceTime returns the instant all timestamps are computed against.
// An empty setting means the current time, truncated to whole seconds.
func (c *Config) ReferenceTime() (time.Time, error) {
	if c.Generator.ReferenceTime == "" {
		return time.Now().UTC().Truncate(time.Second), nil
	}

	t, err := time.Parse(time.RFC3339, c.Generator.ReferenceTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid generator.reference_time %q: %w", c.Generator.ReferenceTime, err)
	}
	return t.UTC().Truncate(time.Second), nil
}
