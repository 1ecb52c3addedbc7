// Package metrics provides Prometheus instrumentation for pipeflow pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values of PipesSettled.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Registry holds all metric instances for pipeflow components.
type Registry struct {
	// Pipeline lifecycle
	PipesStarted  *prometheus.CounterVec
	PipesSettled  *prometheus.CounterVec
	PipeDuration  *prometheus.HistogramVec
	PipesActive   *prometheus.GaugeVec
	Registrations *prometheus.GaugeVec
	LateEvents    *prometheus.CounterVec

	// Data movement
	LinkBytes *prometheus.CounterVec

	// HTTP surface of the CLI server
	HTTPRequests *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by pipeflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	config := DefaultConfig()
	config.Registry = reg
	return New(config)
}

// New creates a registry from config. Metrics are registered on
// config.Registry under config.Namespace with config.Labels attached.
func New(config Config) *Registry {
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	factory := promauto.With(config.Registry)
	ns := config.Namespace
	labels := config.Labels

	return &Registry{
		PipesStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipe",
				Name:        "started_total",
				Help:        "Total number of pipelines started",
				ConstLabels: labels,
			},
			[]string{"pipe_name"},
		),

		PipesSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipe",
				Name:        "settled_total",
				Help:        "Total number of pipelines settled, by outcome",
				ConstLabels: labels,
			},
			[]string{"pipe_name", "outcome"},
		),

		PipeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "pipe",
				Name:        "duration_seconds",
				Help:        "Time from pipeline start to settlement",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pipe_name"},
		),

		PipesActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pipe",
				Name:        "active",
				Help:        "Number of pipelines that have not settled yet",
				ConstLabels: labels,
			},
			[]string{"pipe_name"},
		),

		Registrations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "pipe",
				Name:        "registrations",
				Help:        "Number of listeners currently attached to stages by pipelines",
				ConstLabels: labels,
			},
			[]string{"pipe_name"},
		),

		LateEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipe",
				Name:        "late_events_total",
				Help:        "Total number of stage events discarded after settlement",
				ConstLabels: labels,
			},
			[]string{"pipe_name"},
		),

		LinkBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "link",
				Name:        "bytes_total",
				Help:        "Total bytes moved across pipeline links",
				ConstLabels: labels,
			},
			[]string{"pipe_name"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "http",
				Name:        "requests_total",
				Help:        "Total number of HTTP requests served",
				ConstLabels: labels,
			},
			[]string{"route", "code"},
		),
	}
}
