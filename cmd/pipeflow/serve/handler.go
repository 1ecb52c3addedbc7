package serve

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vnykmshr/pipeflow/internal/app"
	"github.com/vnykmshr/pipeflow/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/pipeflow/pkg/streaming/fsstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/httpstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/pipe"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

type handler struct {
	app     *app.App
	root    string
	streams *concurrency.Limiter
	engine  *gin.Engine
}

// NewHandler returns the HTTP handler of `pipeflow serve`.
func NewHandler(a *app.App) (http.Handler, error) {
	h, err := newHandler(a)
	if err != nil {
		return nil, err
	}
	return h.engine, nil
}

func newHandler(a *app.App) (*handler, error) {
	streams, err := concurrency.New(a.Config.Serve.MaxStreams)
	if err != nil {
		return nil, err
	}

	if a.Logger.GetLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &handler{app: a, root: a.Config.Serve.Root, streams: streams}

	engine := gin.New()
	engine.Use(h.recovery(), requestID(), h.observe())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "pipeflow",
			"streams": h.streams.InUse(),
		})
	})
	engine.GET("/concat", h.limit, h.concat)
	engine.PUT("/files/*path", h.limit, h.store)
	if a.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Gatherer, promhttp.HandlerOpts{})))
	}

	h.engine = engine
	return h, nil
}

// limit rejects the request when every stream permit is taken.
func (h *handler) limit(c *gin.Context) {
	if !h.streams.Acquire() {
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "too many concurrent streams"})
		return
	}
	defer h.streams.Release()
	c.Next()
}

// concat streams every ?path= file into the response, one pipeline per
// file, keeping the response open until the last one.
func (h *handler) concat(c *gin.Context) {
	paths := c.QueryArray("path")
	if len(paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	files := make([]string, len(paths))
	for i, p := range paths {
		full, ok := h.resolve(c, p)
		if !ok {
			return
		}
		info, err := os.Stat(full)
		switch {
		case os.IsNotExist(err):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found", "path": p})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "path": p})
			return
		case info.IsDir():
			c.JSON(http.StatusBadRequest, gin.H{"error": "is a directory", "path": p})
			return
		}
		files[i] = full
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)

	sink := httpstage.Response(c.Writer)
	for i, f := range files {
		cfg := h.app.PipeConfig("concat")
		cfg.KeepOpen = i < len(files)-1
		if err := pipe.Run([]stage.Stage{fsstage.Open(f), sink}, cfg); err != nil {
			// The status line is already out; cut the body short.
			h.app.Logger.Error().Err(err).Str("path", paths[i]).Msg("concat failed")
			c.Abort()
			return
		}
	}
}

// store writes the request body to the file named by the path parameter.
func (h *handler) store(c *gin.Context) {
	p := c.Param("path")
	full, ok := h.resolve(c, p[1:])
	if !ok {
		return
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stages := []stage.Stage{httpstage.Body(c.Request), fsstage.Create(full)}
	if err := pipe.Run(stages, h.app.PipeConfig("store")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusCreated)
}

// resolve maps a request path below the root. It writes a 400 response and
// reports false when p escapes the root.
func (h *handler) resolve(c *gin.Context, p string) (string, bool) {
	if !filepath.IsLocal(p) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path must be relative to the served root", "path": p})
		return "", false
	}
	return filepath.Join(h.root, p), true
}

func (h *handler) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				h.app.Logger.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// observe logs every request and counts it by route and status code.
func (h *handler) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if m := h.app.Metrics; m != nil {
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
		if route == "/health" || route == "/metrics" {
			return
		}

		ev := h.app.Logger.Debug()
		switch {
		case status >= 500:
			ev = h.app.Logger.Error()
		case status >= 400:
			ev = h.app.Logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("request completed")
	}
}
