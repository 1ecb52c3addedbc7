package app

import (
	"context"
	"io"
	"net/url"
	"strings"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/streaming/fsstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/httpstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/redisstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
)

// Endpoint kinds.
const (
	KindFile  = "file"
	KindHTTP  = "http"
	KindRedis = "redis"
	KindStdio = "stdio"
)

// Endpoint is a parsed copy/cat argument: a file path, an http(s) URL,
// redis://host:port/key or "-" for stdin and stdout.
type Endpoint struct {
	Kind string
	// Path of a file endpoint.
	Path string
	// URL of an http endpoint.
	URL string
	// Addr and Key of a redis endpoint. Addr may be empty.
	Addr string
	Key  string
}

// ParseEndpoint parses s. Anything that is not an http, https or redis URL
// is a file path.
func ParseEndpoint(s string) (Endpoint, error) {
	if s == "" {
		return Endpoint{}, pferrors.NewValidationError("app", "endpoint", nil, "could not be empty")
	}

	if s == "-" {
		return Endpoint{Kind: KindStdio}, nil
	}

	scheme, _, found := strings.Cut(s, "://")
	if !found {
		return Endpoint{Kind: KindFile, Path: s}, nil
	}

	switch strings.ToLower(scheme) {
	case "http", "https":
		return Endpoint{Kind: KindHTTP, URL: s}, nil
	case "redis":
		u, err := url.Parse(s)
		if err != nil {
			return Endpoint{}, pferrors.NewValidationError("app", "endpoint", s, "is not a valid URL")
		}
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" {
			return Endpoint{}, pferrors.NewValidationError("app", "endpoint", s, "has no key").
				WithHint("use redis://host:port/key")
		}
		return Endpoint{Kind: KindRedis, Addr: u.Host, Key: key}, nil
	case "file":
		return Endpoint{Kind: KindFile, Path: strings.TrimPrefix(s, "file://")}, nil
	}
	return Endpoint{}, pferrors.NewValidationError("app", "endpoint", s, "has an unsupported scheme").
		WithHint("use a file path, an http(s) URL or redis://host:port/key")
}

// Source opens the endpoint s for reading.
func (a *App) Source(ctx context.Context, s string) (stage.Source, error) {
	ep, err := ParseEndpoint(s)
	if err != nil {
		return nil, err
	}

	switch ep.Kind {
	case KindHTTP:
		return httpstage.Get(ctx, a.HTTP, ep.URL), nil
	case KindRedis:
		return redisstage.NewSource(ctx, a.redisConfig(ep))
	case KindStdio:
		return stage.NewSource("stdin", struct{ io.Reader }{a.Stdin}), nil
	}
	return fsstage.Open(ep.Path), nil
}

// Sink opens the endpoint s for writing. An http endpoint receives the
// data as a POST body.
func (a *App) Sink(ctx context.Context, s string) (stage.Sink, error) {
	ep, err := ParseEndpoint(s)
	if err != nil {
		return nil, err
	}

	switch ep.Kind {
	case KindHTTP:
		return httpstage.Post(ctx, a.HTTP, ep.URL, "application/octet-stream"), nil
	case KindRedis:
		return redisstage.NewSink(ctx, a.redisConfig(ep))
	case KindStdio:
		// stdout is shared by the process and never closed
		return stage.NewSink("stdout", struct{ io.Writer }{a.Stdout}), nil
	}
	return fsstage.Create(ep.Path), nil
}

func (a *App) redisConfig(ep Endpoint) redisstage.Config {
	return redisstage.Config{
		Redis:        a.Redis(ep.Addr),
		Key:          ep.Key,
		TTL:          a.Config.Redis.TTL,
		RedisTimeout: a.Config.Redis.Timeout,
	}
}
