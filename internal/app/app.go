// Package app holds the runtime shared by pipeflow commands: configuration,
// logger, metrics and the clients used by remote endpoints.
package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vnykmshr/pipeflow/internal/config"
	"github.com/vnykmshr/pipeflow/internal/logger"
	"github.com/vnykmshr/pipeflow/internal/plan"
	"github.com/vnykmshr/pipeflow/pkg/metrics"
	"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
)

// SkipAnnotation marks commands that run without an App.
const SkipAnnotation = "pipeflow/skip-app"

// App is created once per CLI invocation.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Registry
	// Gatherer serves /metrics. It is nil when metrics are disabled.
	Gatherer prometheus.Gatherer
	HTTP     *http.Client

	// Stdin and Stdout back the "-" endpoint.
	Stdin  io.Reader
	Stdout io.Writer

	mu    sync.Mutex
	redis map[string]redis.UniversalClient
}

// New creates an App. Logs are written to logOut, or stderr when nil.
func New(cfg *config.Config, logOut io.Writer) *App {
	a := &App{
		Config: cfg,
		Logger: logger.New(cfg.Log, logOut),
		HTTP:   &http.Client{Timeout: cfg.HTTP.Timeout},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		redis:  make(map[string]redis.UniversalClient),
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		mc := metrics.DefaultConfig()
		mc.Registry = reg
		a.Metrics = mc.Build()
		a.Gatherer = reg
	}
	return a
}

// PipeConfig returns the pipeline configuration for a pipeline called name.
func (a *App) PipeConfig(name string) pipe.Config {
	return pipe.Config{
		Name:      name,
		ChunkSize: a.Config.Pipe.ChunkSize,
		Logger:    &a.Logger,
		Metrics:   a.Metrics,
	}
}

// PlanDeps returns the clients plan stages are built with.
func (a *App) PlanDeps() plan.Deps {
	return plan.Deps{
		HTTP:         a.HTTP,
		Redis:        a.Redis(""),
		RedisTimeout: a.Config.Redis.Timeout,
	}
}

// Redis returns the client for addr, creating it on first use. An empty
// addr selects the configured server.
func (a *App) Redis(addr string) redis.UniversalClient {
	if addr == "" {
		addr = a.Config.Redis.Addr
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.redis[addr]; ok {
		return c
	}
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	a.redis[addr] = c
	return c
}

// Close releases the Redis clients.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var first error
	for addr, c := range a.redis {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
		delete(a.redis, addr)
	}
	return first
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying a.
func WithContext(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the App stored by WithContext, or nil.
func FromContext(ctx context.Context) *App {
	a, _ := ctx.Value(ctxKey{}).(*App)
	return a
}
