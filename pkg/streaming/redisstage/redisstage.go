// Package redisstage provides stages backed by Redis string values: a
// Source streaming a value in GETRANGE chunks and a Sink building one with
// APPEND.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	src, err := redisstage.NewSource(ctx, redisstage.Config{Redis: rdb, Key: "report"})
//
// A value that changes while it is being read is not read atomically.
package redisstage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/common/validation"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

const module = "redisstage"

// Config holds configuration for Redis stages.
type Config struct {
	// Redis client used for every command
	Redis redis.UniversalClient

	// Key of the string value to read or write
	Key string

	// ChunkSize bounds the bytes fetched per GETRANGE (defaults to 64 KiB)
	ChunkSize int

	// Append keeps an existing value and appends to it. By default the sink
	// replaces the value.
	Append bool

	// TTL is applied to the key once the sink ends. Zero keeps the key forever.
	TTL time.Duration

	// RedisTimeout is the timeout for each Redis command
	RedisTimeout time.Duration
}

// DefaultConfig returns a default Redis stage configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    64 * 1024,
		RedisTimeout: 500 * time.Millisecond,
	}
}

func validateConfig(config Config) error {
	if err := validation.ValidateNotNil(module, "redis", config.Redis); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty(module, "key", config.Key); err != nil {
		return err
	}
	if config.ChunkSize < 0 {
		return validation.ValidatePositive(module, "chunk_size", config.ChunkSize)
	}
	if config.TTL < 0 {
		return pferrors.NewValidationError(module, "ttl", config.TTL, "must not be negative")
	}
	return nil
}

func applyConfigDefaults(config Config) Config {
	defaults := DefaultConfig()
	if config.ChunkSize == 0 {
		config.ChunkSize = defaults.ChunkSize
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = defaults.RedisTimeout
	}
	return config
}

// NewSource returns a Source streaming the value at config.Key. A missing
// key fails on first read with an error wrapping redis.Nil.
func NewSource(ctx context.Context, config Config) (*stage.ReaderSource, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	config = applyConfigDefaults(config)
	return stage.NewSource("redis:"+config.Key, &valueReader{ctx: ctx, config: config}), nil
}

// NewSink returns a Sink writing into the value at config.Key.
func NewSink(ctx context.Context, config Config) (*stage.WriterSink, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	config = applyConfigDefaults(config)
	return stage.NewSink("redis:"+config.Key, &valueWriter{ctx: ctx, config: config}), nil
}

type valueReader struct {
	ctx    context.Context
	config Config
	offset int64
	size   int64
	sized  bool
}

func (r *valueReader) Read(p []byte) (int, error) {
	if !r.sized {
		if err := r.stat(); err != nil {
			return 0, err
		}
	}
	if r.offset >= r.size {
		return 0, io.EOF
	}

	n := int64(len(p))
	if n > int64(r.config.ChunkSize) {
		n = int64(r.config.ChunkSize)
	}
	if remaining := r.size - r.offset; n > remaining {
		n = remaining
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.config.RedisTimeout)
	defer cancel()
	chunk, err := r.config.Redis.GetRange(ctx, r.config.Key, r.offset, r.offset+n-1).Result()
	if err != nil {
		return 0, r.opError("GetRange", err)
	}
	if len(chunk) == 0 {
		// The value shrank while it was being read.
		return 0, io.EOF
	}

	copied := copy(p, chunk)
	r.offset += int64(copied)
	return copied, nil
}

func (r *valueReader) stat() error {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.RedisTimeout)
	defer cancel()

	exists, err := r.config.Redis.Exists(ctx, r.config.Key).Result()
	if err != nil {
		return r.opError("Exists", err)
	}
	if exists == 0 {
		return r.opError("Get", redis.Nil)
	}
	size, err := r.config.Redis.StrLen(ctx, r.config.Key).Result()
	if err != nil {
		return r.opError("StrLen", err)
	}
	r.size = size
	r.sized = true
	return nil
}

func (r *valueReader) opError(op string, err error) error {
	return commandError(op, r.config.Key, err)
}

type valueWriter struct {
	ctx    context.Context
	config Config

	mu       sync.Mutex
	prepared bool
}

// prepare clears the key before the first write unless appending.
func (w *valueWriter) prepare(ctx context.Context) error {
	if w.prepared {
		return nil
	}
	w.prepared = true
	if w.config.Append {
		return nil
	}
	if err := w.config.Redis.Del(ctx, w.config.Key).Err(); err != nil {
		return w.opError("Del", err)
	}
	return nil
}

func (w *valueWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(w.ctx, w.config.RedisTimeout)
	defer cancel()

	if err := w.prepare(ctx); err != nil {
		return 0, err
	}
	if err := w.config.Redis.Append(ctx, w.config.Key, string(p)).Err(); err != nil {
		return 0, w.opError("Append", err)
	}
	return len(p), nil
}

// Close makes sure the key exists, even when nothing was written, and
// applies the TTL.
func (w *valueWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithTimeout(w.ctx, w.config.RedisTimeout)
	defer cancel()

	if err := w.prepare(ctx); err != nil {
		return err
	}
	if err := w.config.Redis.Append(ctx, w.config.Key, "").Err(); err != nil {
		return w.opError("Append", err)
	}
	if w.config.TTL > 0 {
		if err := w.config.Redis.Expire(ctx, w.config.Key, w.config.TTL).Err(); err != nil {
			return w.opError("Expire", err)
		}
	}
	return nil
}

// Abort leaves the key as it is; neither the TTL nor an empty value is
// applied.
func (w *valueWriter) Abort(error) {}

func (w *valueWriter) opError(op string, err error) error {
	return commandError(op, w.config.Key, err)
}

// commandError names the failed command and key. The go-redis error stays
// reachable through errors.Is and errors.As.
func commandError(op, key string, err error) error {
	return fmt.Errorf("redis %s %s: %w", strings.ToUpper(op), key, err)
}
