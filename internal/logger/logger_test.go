package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "loud", Format: "json"}
	assert.Error(t, cfg.Validate())

	cfg = Config{Level: "debug", Format: "xml"}
	assert.ErrorContains(t, cfg.Validate(), "log.format")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("pipe", "copy").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"pipe":"copy"`)
	assert.Contains(t, out, `"service":"pipeflow"`)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "console", NoColor: true}, &buf)

	log.Debug().Msg("pipe settled")
	assert.True(t, strings.Contains(buf.String(), "pipe settled"))
}
