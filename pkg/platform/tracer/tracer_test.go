package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	got, span := Noop{}.Start(ctx, SpanAuthLogin, String(AttrTenantID, "t1"))
	assert.Equal(t, ctx, got)
	span.SetAttributes(Bool("ok", true))
	span.AddEvent("event")
	span.End(errors.New("boom"))
}

func TestOTel(t *testing.T) {
	tr := NewOTel(WithTracer(noop.NewTracerProvider().Tracer("test")))
	ctx, span := tr.Start(context.Background(), SpanTenantResolve,
		String(AttrSlug, "acme"), Int("count", 2), Bool("cached", false))
	require.NotNil(t, ctx)
	span.AddEvent("resolved", String(AttrOutcome, "ok"))
	span.End(nil)

	kv := keyValues([]Attribute{
		String("a", "b"),
		{Key: "id", Value: uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")},
		{Key: "skip", Value: struct{}{}},
	})
	require.Len(t, kv, 2)
	assert.Equal(t, "aaaa0000-0000-0000-0000-000000000001", kv[1].Value.AsString())
	assert.Nil(t, keyValues(nil))
}

func TestOTelRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := NewProvider("smartparking", "test", sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tr := NewOTel(WithTracer(tp.Tracer("test")))
	_, login := tr.Start(context.Background(), SpanAuthLogin, String(AttrTenantID, "acme"))
	login.End(nil)
	_, failed := tr.Start(context.Background(), SpanAuthRefresh)
	failed.End(errors.New("replayed"))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, SpanAuthLogin, spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(AttrTenantID, "acme"))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "replayed", spans[1].Status().Description)

	svc, found := spans[0].Resource().Set().Value("service.name")
	require.True(t, found)
	assert.Equal(t, "smartparking", svc.AsString())
}
