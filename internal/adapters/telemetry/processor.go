package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogProcessor implements sdktrace.SpanProcessor by writing every ended span
// to a slog.Logger at debug level. The logger is resolved per span so that
// output and level changes made after construction apply.
type LogProcessor struct {
	logger func() *slog.Logger
}

// NewLogProcessor returns a LogProcessor writing to the logger returned by fn.
func NewLogProcessor(fn func() *slog.Logger) *LogProcessor {
	return &LogProcessor{logger: fn}
}

// OnStart does nothing.
func (p *LogProcessor) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration, status and attributes.
func (p *LogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.logger == nil || !s.SpanContext().IsValid() {
		return
	}
	logger := p.logger()
	if logger == nil {
		return
	}

	args := []any{"duration", s.EndTime().Sub(s.StartTime()).Round(time.Millisecond).String()}
	for _, kv := range s.Attributes() {
		args = append(args, string(kv.Key), kv.Value.Emit())
	}

	level := slog.LevelDebug
	if s.Status().Code == codes.Error {
		args = append(args, "error", s.Status().Description)
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "span "+s.Name(), args...)
}

// ForceFlush does nothing.
func (p *LogProcessor) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (p *LogProcessor) Shutdown(_ context.Context) error {
	return nil
}

// NewProvider returns an SDK tracer provider that logs spans through fn.
func NewProvider(fn func() *slog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(NewLogProcessor(fn)),
	)
}
