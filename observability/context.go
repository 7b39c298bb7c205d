package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Run tracks one traced unit of work, such as a report over a log set.
type Run struct {
	Name      string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRun creates a run. If metrics is nil, metric recording is skipped.
func NewRun(name string, metrics *Metrics) *Run {
	return &Run{
		Name:      name,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRun stores a Run in the context.
func WithRun(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runContextKey{}, r)
}

// RunFromContext retrieves the Run from context, or nil.
func RunFromContext(ctx context.Context) *Run {
	if r, ok := ctx.Value(runContextKey{}).(*Run); ok {
		return r
	}
	return nil
}

// Start starts the run's span and stores the run in the returned context.
func (r *Run) Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(attribute.String(AttrRunName, r.Name))
	return WithRun(ctx, r), span
}

// End ends the span and records the run duration. records is the number of
// records the run produced.
func (r *Run) End(ctx context.Context, span trace.Span, records int, err error) {
	duration := time.Since(r.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMsg, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrRecords, records),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	r.Metrics.RecordRun(ctx, r.Name, status, duration)
}

// Duration returns the elapsed time since the run started.
func (r *Run) Duration() time.Duration {
	return time.Since(r.StartTime)
}
