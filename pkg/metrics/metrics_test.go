package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_NamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "custom",
		Labels:    prometheus.Labels{"env": "test"},
	})

	r.LinkBytes.WithLabelValues("copy").Add(42)

	expected := `
# HELP custom_link_bytes_total Total bytes moved across pipeline links
# TYPE custom_link_bytes_total counter
custom_link_bytes_total{env="test",pipe_name="copy"} 42
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "custom_link_bytes_total"); err != nil {
		t.Fatal(err)
	}
}

func TestNewRegistry_DefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	r.PipesActive.WithLabelValues("p").Inc()

	n, err := testutil.GatherAndCount(reg, "pipeflow_pipe_active")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("pipeflow_pipe_active series = %d, want 1", n)
	}
}

func TestConfigBuild(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Registry = prometheus.NewRegistry()
	if cfg.Build() == nil {
		t.Error("enabled config should build a registry")
	}

	cfg.Enabled = false
	if cfg.Build() != nil {
		t.Error("disabled config should build nil")
	}
}
