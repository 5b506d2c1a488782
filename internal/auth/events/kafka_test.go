package events

//go:generate mockgen -source=kafka.go -destination=mocks/mocks.go -package=mocks JSONProducer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"smartparking/internal/auth/events/mocks"
)

func TestKafkaPublisherKeysByAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockJSONProducer(ctrl)
	pub := NewKafkaPublisher(producer, "")

	event := LoginEvent{Type: TypeLoginSucceeded, AdminID: "admin-1", TenantID: "tenant-1"}
	producer.EXPECT().
		ProduceJSON(gomock.Any(), DefaultLoginTopic, "admin-1", event, map[string]string{
			"event_type": string(TypeLoginSucceeded),
			"tenant_id":  "tenant-1",
		}).
		Return(nil)

	require.NoError(t, pub.Observe(context.Background(), event))
}

func TestKafkaPublisherFallsBackToTenantKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockJSONProducer(ctrl)
	pub := NewKafkaPublisher(producer, "custom.topic")

	producer.EXPECT().
		ProduceJSON(gomock.Any(), "custom.topic", "tenant-1", gomock.Any(), gomock.Any()).
		Return(errors.New("broker unavailable"))

	err := pub.Observe(context.Background(), LoginEvent{Type: TypeLoginFailed, TenantID: "tenant-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom.topic")
}

func TestAuditLoggerNeverFails(t *testing.T) {
	a := NewAuditLogger(nil)
	assert.Equal(t, "audit_log", a.Name())
	assert.NoError(t, a.Observe(context.Background(), LoginEvent{Type: TypeLoginFailed, Email: "admin@acme.com", IP: "10.1.2.3"}))
}
