package service

import (
	"context"

	"smartparking/internal/auth/device"
	"smartparking/internal/auth/events"
	id "smartparking/pkg/domain"
	"smartparking/pkg/requestcontext"
)

// publish enriches event with request metadata and hands it to the bus.
// Publishing never blocks and never fails the caller.
func (s *Service) publish(ctx context.Context, event events.LoginEvent) {
	if s.publisher == nil {
		return
	}
	ua := requestcontext.UserAgent(ctx)
	event.IP = requestcontext.ClientIP(ctx)
	event.UserAgent = ua
	event.Device = device.Describe(ua)
	event.RequestID = requestcontext.RequestID(ctx)
	event.Timestamp = s.now().UTC()
	s.publisher.Publish(event)
}

func (s *Service) publishFailure(ctx context.Context, tenantID id.TenantID, email, reason string) {
	s.publish(ctx, events.LoginEvent{
		Type:     events.TypeLoginFailed,
		TenantID: tenantID.String(),
		Email:    email,
		Reason:   reason,
	})
}
