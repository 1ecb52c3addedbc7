// Package config loads the pipeflow CLI configuration from a YAML file, an
// optional .env file and PIPEFLOW_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/common/validation"
	"github.com/vnykmshr/pipeflow/internal/logger"
)

const (
	module = "config"

	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "PIPEFLOW"

	// DefaultFile is read when no config file is given and it exists.
	DefaultFile = "pipeflow.yml"
)

// Config is the complete CLI configuration.
type Config struct {
	Log     logger.Config `mapstructure:"log"`
	Pipe    PipeConfig    `mapstructure:"pipe"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Redis   RedisConfig   `mapstructure:"redis"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// PipeConfig holds defaults for every pipeline the CLI runs.
type PipeConfig struct {
	ChunkSize int `mapstructure:"chunk_size" validate:"gte=0"`
}

// ServeConfig configures `pipeflow serve`.
type ServeConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
	// Root is the directory /concat paths are resolved against.
	Root            string        `mapstructure:"root" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	// MaxStreams caps concurrent /concat and /files requests.
	MaxStreams int `mapstructure:"max_streams" validate:"gte=1"`
}

// RedisConfig configures redis:// endpoints.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" validate:"required,hostname_port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// HTTPConfig configures http(s):// endpoints.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Options selects the files Load reads. Empty fields fall back to
// DefaultFile and ".env" when those exist.
type Options struct {
	ConfigFile string
	EnvFile    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.timestamp", true)
	v.SetDefault("pipe.chunk_size", 32*1024)
	v.SetDefault("serve.addr", "localhost:8080")
	v.SetDefault("serve.root", ".")
	v.SetDefault("serve.shutdown_timeout", 5*time.Second)
	v.SetDefault("serve.max_streams", 16)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("redis.timeout", 500*time.Millisecond)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("metrics.enabled", true)
}

// Load reads and validates the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	configFile := opts.ConfigFile
	if configFile == "" && exists(DefaultFile) {
		configFile = DefaultFile
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, pferrors.NewOperationError(module, "Load", err).WithContext(configFile)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and the logging section.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(module, c); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return pferrors.NewValidationError(module, "log", nil, err.Error())
	}
	return nil
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. An explicit path must exist; the default
// .env is optional.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return pferrors.NewOperationError(module, "LoadEnv", err).WithContext(path)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
