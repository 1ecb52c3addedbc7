// Package plan reads YAML pipeline plans and turns them into stages.
//
//	name: nightly-backup
//	keep_open: false
//	stages:
//	  - type: tar
//	    path: ./data
//	    entries: [a.txt, b.txt]
//	  - type: gzip
//	  - type: file
//	    path: ./backup.tar.gz
package plan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	pferrors "github.com/vnykmshr/pipeflow/pkg/common/errors"
	"github.com/vnykmshr/pipeflow/pkg/common/validation"
	"github.com/vnykmshr/pipeflow/pkg/ratelimit/bucket"
	"github.com/vnykmshr/pipeflow/pkg/streaming/archive"
	"github.com/vnykmshr/pipeflow/pkg/streaming/codec"
	"github.com/vnykmshr/pipeflow/pkg/streaming/fsstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/httpstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/redisstage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/stage"
	"github.com/vnykmshr/pipeflow/pkg/streaming/throttle"
)

const module = "plan"

// Stage types understood by Build.
const (
	TypeFile   = "file"
	TypeAppend = "append"
	TypeTar    = "tar"
	TypeUntar  = "untar"
	TypeGzip   = "gzip"
	TypeGunzip = "gunzip"
	TypeHTTP   = "http"
	TypeRedis  = "redis"
	// TypeThrottle paces the bytes flowing through it.
	TypeThrottle = "throttle"
)

// Plan describes one pipeline.
type Plan struct {
	Name     string      `yaml:"name" validate:"required"`
	KeepOpen bool        `yaml:"keep_open"`
	Cron     string      `yaml:"cron"`
	Stages   []StageSpec `yaml:"stages" validate:"required,min=1,dive"`
}

// StageSpec describes one stage of a plan. Which fields apply depends on
// Type and on the position of the stage.
type StageSpec struct {
	Type    string        `yaml:"type" validate:"required,oneof=file append tar untar gzip gunzip http redis throttle"`
	Path    string        `yaml:"path" validate:"required_if=Type file,required_if=Type append,required_if=Type tar,required_if=Type untar"`
	Entries []string      `yaml:"entries"`
	URL     string        `yaml:"url" validate:"omitempty,url"`
	Key     string        `yaml:"key" validate:"required_if=Type redis"`
	Level   *int          `yaml:"level" validate:"omitempty,gte=-2,lte=9"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
	Append  bool          `yaml:"append"`
	// Rate in bytes per second and Burst in bytes of a throttle stage.
	Rate  int64 `yaml:"rate" validate:"required_if=Type throttle,gte=0"`
	Burst int   `yaml:"burst" validate:"gte=0"`
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pferrors.NewOperationError(module, "Load", err).WithContext(path)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes and validates a plan. Unknown fields are rejected.
func Parse(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, pferrors.NewOperationError(module, "Parse", err)
	}
	if err := validation.ValidateStruct(module, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Deps are the clients stages may need.
type Deps struct {
	HTTP  *http.Client
	Redis redis.UniversalClient
	// RedisTimeout bounds each Redis command.
	RedisTimeout time.Duration
}

// Build creates fresh stages for one run of the plan.
func (p *Plan) Build(ctx context.Context, deps Deps) ([]stage.Stage, error) {
	stages := make([]stage.Stage, 0, len(p.Stages))
	last := len(p.Stages) - 1

	for i, spec := range p.Stages {
		var (
			s   stage.Stage
			err error
		)
		switch {
		case i == 0:
			s, err = spec.source(ctx, deps)
		case i == last:
			s, err = spec.sink(ctx, deps)
		default:
			s, err = spec.through(ctx)
		}
		if err != nil {
			if verr, ok := err.(*pferrors.ValidationError); ok {
				verr.Field = fmt.Sprintf("stages[%d].%s", i, verr.Field)
			}
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, nil
}

func (s StageSpec) source(ctx context.Context, deps Deps) (stage.Stage, error) {
	switch s.Type {
	case TypeFile:
		return fsstage.Open(s.Path), nil
	case TypeTar:
		return archive.Pack(s.Path, s.Entries...), nil
	case TypeHTTP:
		if s.URL == "" {
			return nil, pferrors.NewValidationError(module, "url", nil, "is required")
		}
		return httpstage.Get(ctx, deps.HTTP, s.URL), nil
	case TypeRedis:
		return redisstage.NewSource(ctx, s.redisConfig(deps))
	}
	return nil, s.misplaced("source")
}

func (s StageSpec) sink(ctx context.Context, deps Deps) (stage.Stage, error) {
	switch s.Type {
	case TypeFile:
		return fsstage.Create(s.Path), nil
	case TypeAppend:
		return fsstage.Append(s.Path), nil
	case TypeUntar:
		return archive.Extract(s.Path), nil
	case TypeHTTP:
		if s.URL == "" {
			return nil, pferrors.NewValidationError(module, "url", nil, "is required")
		}
		return httpstage.Post(ctx, deps.HTTP, s.URL, "application/octet-stream"), nil
	case TypeRedis:
		return redisstage.NewSink(ctx, s.redisConfig(deps))
	case TypeGzip, TypeGunzip, TypeThrottle:
		return s.through(ctx)
	}
	return nil, s.misplaced("sink")
}

func (s StageSpec) through(ctx context.Context) (stage.Stage, error) {
	switch s.Type {
	case TypeGzip:
		if s.Level != nil {
			return codec.GzipLevel(*s.Level)
		}
		return codec.Gzip(), nil
	case TypeGunzip:
		return codec.Gunzip(), nil
	case TypeThrottle:
		lim, err := bucket.New(bucket.Config{BytesPerSecond: s.Rate, Burst: s.Burst})
		if err != nil {
			return nil, err
		}
		return throttle.New(ctx, lim), nil
	}
	return nil, s.misplaced("interior stage")
}

func (s StageSpec) redisConfig(deps Deps) redisstage.Config {
	return redisstage.Config{
		Redis:        deps.Redis,
		Key:          s.Key,
		TTL:          s.TTL,
		Append:       s.Append,
		RedisTimeout: deps.RedisTimeout,
	}
}

func (s StageSpec) misplaced(role string) error {
	return pferrors.NewValidationError(module, "type", s.Type, "cannot be used as "+role)
}
