package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Generator.Seed)
	assert.Equal(t, 4, cfg.Generator.Parallelism)
	assert.True(t, cfg.Generator.Verify)
	assert.Equal(t, "./samples", cfg.Output.Directory)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, CompressionNone, cfg.Output.Compression)
	assert.Equal(t, 2, cfg.Output.Indent)
	assert.Equal(t, "ctf-datagen", cfg.Logging.ServiceName)
	assert.Equal(t, 30*time.Second, cfg.Sinks.Elasticsearch.Timeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Sinks.Kafka.Brokers)
	assert.False(t, cfg.Sinks.Postgres.Enabled)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datagen.yaml")
	content := []byte(`
generator:
  seed: 7
  reference_time: "2024-03-01T12:00:00Z"
output:
  directory: /tmp/kql
  format: msgpack
  compression: lz4
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("CTF_DATAGEN_GENERATOR_PARALLELISM", "8")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Generator.Seed)
	assert.Equal(t, 8, cfg.Generator.Parallelism)
	assert.Equal(t, FormatMsgpack, cfg.Output.Format)
	assert.Equal(t, CompressionLZ4, cfg.Output.Compression)

	ref, err := cfg.ReferenceTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), ref)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("seed", 42, "")
	require.NoError(t, v.BindPFlag("generator.seed", flags.Lookup("seed")))
	require.NoError(t, flags.Parse([]string{"--seed", "1337"}))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1337), cfg.Generator.Seed)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Generator: GeneratorConfig{Parallelism: 1},
			Output:    OutputConfig{Directory: "out", Format: FormatJSON, Compression: CompressionNone, Indent: 2},
		}
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"parallelism":    func(c *Config) { c.Generator.Parallelism = 0 },
		"reference time": func(c *Config) { c.Generator.ReferenceTime = "yesterday" },
		"directory":      func(c *Config) { c.Output.Directory = "" },
		"format":         func(c *Config) { c.Output.Format = "csv" },
		"compression":    func(c *Config) { c.Output.Compression = "zstd" },
		"indent":         func(c *Config) { c.Output.Indent = -1 },
		"es addresses":   func(c *Config) { c.Sinks.Elasticsearch.Enabled = true },
		"kafka brokers":  func(c *Config) { c.Sinks.Kafka.Enabled = true },
		"postgres host":  func(c *Config) { c.Sinks.Postgres.Enabled = true },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, Database: "kql", Username: "ctf", Password: "s3cret", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 dbname=kql user=ctf password=s3cret sslmode=disable", p.DSN())
}
