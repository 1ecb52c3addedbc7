// Package logger builds the zerolog logger used by the pipeflow CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config contains logging configuration.
type Config struct {
	Level     string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format    string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	NoColor   bool   `mapstructure:"no_color"`
	Timestamp bool   `mapstructure:"timestamp"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Format) {
	case "console", "json":
		return nil
	}
	return fmt.Errorf("log.format must be one of [console json] (got: %s)", c.Format)
}

// New creates a logger writing to w. A nil w writes to stderr so that
// stdout stays free for pipeline output.
func New(cfg Config, w io.Writer) zerolog.Logger {
	cfg.ApplyDefaults()
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(w).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("service", "pipeflow").Logger()
}
