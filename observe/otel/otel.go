package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NetPo4ki/go-coop/coop"
)

const (
	EventTaskScheduled = "coop.task.scheduled"
	EventTaskFinished  = "coop.task.finished"

	attrName     = attribute.Key("coop.name")
	attrDuration = attribute.Key("coop.task.duration_ms")
	attrPanicked = attribute.Key("coop.task.panicked")
)

// Tracer adds span events for task lifecycle.
type Tracer struct{}

var _ coop.Observer = (*Tracer)(nil)

func New() *Tracer { return &Tracer{} }

func (*Tracer) TaskScheduled(ctx context.Context, name string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(EventTaskScheduled, trace.WithAttributes(attrName.String(name)))
}

func (*Tracer) TaskFinished(ctx context.Context, name string, dur time.Duration, err error, panicked bool) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		attrName.String(name),
		attrDuration.Int64(dur.Milliseconds()),
		attrPanicked.Bool(panicked),
	}
	if err != nil {
		span.RecordError(err, trace.WithAttributes(attrs...))
	}
	if panicked {
		span.SetStatus(codes.Error, err.Error())
	}
	span.AddEvent(EventTaskFinished, trace.WithAttributes(attrs...))
}

func (*Tracer) LockAcquired(string, coop.Permission, time.Duration) {}
func (*Tracer) LockReleased(string, coop.Permission)                {}
func (*Tracer) CounterChanged(string, int)                          {}
func (*Tracer) GroupJoined(string, time.Duration)                   {}
func (*Tracer) TasksCancelled(string, int)                          {}
