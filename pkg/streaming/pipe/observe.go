package pipe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vnykmshr/pipeflow/pkg/metrics"
)

// observer reports one pipeline to the logger, metrics and tracer.
type observer struct {
	p     *pipeline
	log   zerolog.Logger
	m     *metrics.Registry
	bytes prometheus.Counter
	span  trace.Span
	start time.Time
}

func newObserver(p *pipeline) *observer {
	o := &observer{
		p: p,
		log: p.config.Logger.With().
			Str("pipe", p.config.Name).
			Str("pipe_id", p.id).
			Logger(),
		m:     p.config.Metrics,
		start: time.Now(),
	}
	if o.m != nil {
		o.bytes = o.m.LinkBytes.WithLabelValues(p.config.Name)
	}
	return o
}

func (o *observer) started() {
	_, o.span = o.p.config.Tracer.Start(context.Background(), "pipe "+o.p.config.Name,
		trace.WithAttributes(
			attribute.String("pipeflow.pipe.id", o.p.id),
			attribute.Int("pipeflow.pipe.stages", len(o.p.stages)),
			attribute.Bool("pipeflow.pipe.keep_open", o.p.config.KeepOpen),
		))

	if o.m != nil {
		name := o.p.config.Name
		o.m.PipesStarted.WithLabelValues(name).Inc()
		o.m.PipesActive.WithLabelValues(name).Inc()
		o.m.Registrations.WithLabelValues(name).Add(float64(o.p.reg.len()))
	}

	o.log.Debug().
		Int("stages", len(o.p.stages)).
		Bool("keep_open", o.p.config.KeepOpen).
		Msg("pipe started")
}

func (o *observer) linked(l *link) {
	o.log.Debug().
		Str("from", l.src.Name()).
		Str("to", l.dst.Name()).
		Bool("propagate_end", l.propagateEnd).
		Msg("link established")
}

func (o *observer) moved(n int) {
	if o.bytes != nil {
		o.bytes.Add(float64(n))
	}
}

func (o *observer) settled(ev event, removed int) {
	elapsed := time.Since(o.start)
	outcome := metrics.OutcomeSuccess
	if ev.err != nil {
		outcome = metrics.OutcomeError
	}

	if o.m != nil {
		name := o.p.config.Name
		o.m.PipesSettled.WithLabelValues(name, outcome).Inc()
		o.m.PipeDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		o.m.PipesActive.WithLabelValues(name).Dec()
		o.m.Registrations.WithLabelValues(name).Sub(float64(removed))
	}

	if ev.err != nil {
		o.span.RecordError(ev.err)
		o.span.SetStatus(codes.Error, ev.err.Error())
		o.span.SetAttributes(attribute.String("pipeflow.pipe.failed_stage", o.p.stageName(ev.stage)))
	} else {
		o.span.SetStatus(codes.Ok, "")
	}
	o.span.End()

	logEvent := o.log.Debug().
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Int("listeners_removed", removed)
	if ev.err != nil {
		logEvent = logEvent.Err(ev.err).Str("stage", o.p.stageName(ev.stage))
	}
	logEvent.Msg("pipe settled")
}

func (o *observer) late(ev event) {
	if o.m != nil {
		o.m.LateEvents.WithLabelValues(o.p.config.Name).Inc()
	}
	o.log.Debug().
		Int("stage", ev.stage).
		AnErr("late_error", ev.err).
		Msg("event after settlement discarded")
}

func (p *pipeline) stageName(i int) string {
	if i < 0 || i >= len(p.stages) {
		return "discard"
	}
	return p.stages[i].Name()
}
