package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates basic metrics configuration.
func Example_basicUsage() {
	// Create a separate registry for this test
	testRegistry := prometheus.NewRegistry()
	registry := NewRegistry(testRegistry)

	registry.PipesStarted.WithLabelValues("backup").Inc()
	registry.PipesSettled.WithLabelValues("backup", OutcomeSuccess).Inc()

	fmt.Printf("started: %.0f\n", testutil.ToFloat64(registry.PipesStarted.WithLabelValues("backup")))
	fmt.Printf("succeeded: %.0f\n", testutil.ToFloat64(registry.PipesSettled.WithLabelValues("backup", OutcomeSuccess)))

	// Output:
	// started: 1
	// succeeded: 1
}

// Example_configuration demonstrates different metrics configurations.
func Example_configuration() {
	// Default configuration
	defaultConfig := DefaultConfig()
	fmt.Printf("Default enabled: %v\n", defaultConfig.Enabled)
	fmt.Printf("Default namespace: %s\n", defaultConfig.Namespace)

	// Disabled configuration builds no registry
	customConfig := Config{
		Enabled:   false,
		Namespace: "myapp",
	}
	fmt.Printf("Disabled registry is nil: %v\n", customConfig.Build() == nil)

	// Output:
	// Default enabled: true
	// Default namespace: pipeflow
	// Disabled registry is nil: true
}
