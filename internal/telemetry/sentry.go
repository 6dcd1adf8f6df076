// Package telemetry wraps sentry-go for error reporting and pipeline spans.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

const serverName = "noscite-assistant"

type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init configures the global Sentry client and returns a flush func. An
// empty DSN, or a DSN the SDK rejects, leaves telemetry disabled.
func Init(cfg Config) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		ServerName:       serverName,
		Debug:            cfg.Debug,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		TracesSampler:    sampler(cfg.TracesSampleRate),
	})
	if err != nil {
		log.Warn().Err(err).Msg("sentry disabled")
		return noop, nil
	}

	log.Info().
		Str("environment", cfg.Environment).
		Float64("traces_sample_rate", cfg.TracesSampleRate).
		Msg("sentry initialized")
	return func() { sentry.Flush(5 * time.Second) }, nil
}

// sampler never traces health probes and keeps child spans with their
// parent's decision.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Span == nil {
			return rate
		}
		if ctx.Span.Name == "GET /health" {
			return 0
		}
		if ctx.Span.ParentSpanID != (sentry.SpanID{}) {
			if ctx.Span.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

// SpanAttributes tags a pipeline span. Empty fields are skipped.
type SpanAttributes struct {
	SessionID string
	SourceID  string
	Provider  string
	Operation string
}

type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	s.inner.Finish()
}

// SetError marks the span failed. Reporting the error itself is left to
// CaptureError at the request edge, so a failure is sent once.
func (s *Span) SetError(err error) {
	s.inner.Status = sentry.SpanStatusInternalError
	if err != nil {
		s.inner.SetData("error", err.Error())
	}
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// there is none (CLI runs).
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	if attrs.SessionID != "" {
		span.SetTag("session_id", attrs.SessionID)
	}
	if attrs.SourceID != "" {
		span.SetTag("source_id", attrs.SourceID)
	}
	if attrs.Provider != "" {
		span.SetTag("provider", attrs.Provider)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
	return span.Context(), &Span{inner: span}
}

func CaptureError(ctx context.Context, err error) {
	hubFor(ctx).CaptureException(err)
}

// AddBreadcrumb records a warning breadcrumb on the request's scope.
func AddBreadcrumb(ctx context.Context, category, message string) {
	hubFor(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelWarning,
		Timestamp: time.Now(),
	}, nil)
}

func hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}
