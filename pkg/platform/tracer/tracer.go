// Package tracer is a small tracing abstraction over OpenTelemetry.
//
// Services depend on Tracer instead of the otel API so tests can run with
// the no-op implementation.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Noop discards every span.
type Noop struct{}

func (Noop) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}

// Span names.
const (
	SpanTenantResolve  = "tenant.resolve"
	SpanTenantCreate   = "tenant.create"
	SpanTenantUpdate   = "tenant.update"
	SpanAuthLogin      = "auth.login"
	SpanAuthRefresh    = "auth.refresh"
	SpanAuthLogout     = "auth.logout"
	SpanAuthVerifyHash = "auth.verify_password"
	SpanAdminCreate    = "admin.create"
	SpanAdminRegister  = "admin.register"
	SpanAdminPassword  = "admin.change_password"
)

// Attribute keys.
const (
	AttrTenantID = "tenant.id"
	AttrSlug     = "tenant.slug"
	AttrStrategy = "tenant.strategy"
	AttrAdminID  = "admin.id"
	AttrOutcome  = "outcome"
)
