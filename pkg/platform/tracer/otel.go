package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTel emits spans through an OpenTelemetry tracer.
type OTel struct {
	tracer trace.Tracer
}

type OTelOption func(*OTel)

func WithTracer(t trace.Tracer) OTelOption {
	return func(o *OTel) {
		o.tracer = t
	}
}

// NewOTel defaults to the "smartparking" tracer of the global provider.
func NewOTel(opts ...OTelOption) *OTel {
	o := &OTel{tracer: otel.Tracer("smartparking")}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OTel) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, s := o.tracer.Start(ctx, name, trace.WithAttributes(keyValues(attrs)...))
	return ctx, otelSpan{s}
}

type otelSpan struct {
	trace.Span
}

func (s otelSpan) End(err error) {
	if err != nil {
		s.Span.RecordError(err)
		s.Span.SetStatus(codes.Error, err.Error())
	}
	s.Span.End()
}

func (s otelSpan) SetAttributes(attrs ...Attribute) {
	s.Span.SetAttributes(keyValues(attrs)...)
}

func (s otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.Span.AddEvent(name, trace.WithAttributes(keyValues(attrs)...))
}

// keyValues drops attributes whose value type OpenTelemetry cannot carry,
// except Stringers, which are recorded by their String form.
func keyValues(attrs []Attribute) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		k := attribute.Key(a.Key)
		switch v := a.Value.(type) {
		case string:
			kv = append(kv, k.String(v))
		case bool:
			kv = append(kv, k.Bool(v))
		case int:
			kv = append(kv, k.Int(v))
		case int64:
			kv = append(kv, k.Int64(v))
		case float64:
			kv = append(kv, k.Float64(v))
		case fmt.Stringer:
			kv = append(kv, k.String(v.String()))
		}
	}
	return kv
}

var (
	_ Tracer = (*OTel)(nil)
	_ Tracer = Noop{}
	_ Span   = otelSpan{}
)
