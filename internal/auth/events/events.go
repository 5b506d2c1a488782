// Package events fans login events out to observers without delaying the
// login response.
package events

import (
	"context"
	"time"

	"smartparking/internal/auth/device"
)

type Type string

const (
	TypeLoginSucceeded Type = "admin.login.succeeded"
	TypeLoginFailed    Type = "admin.login.failed"
	TypeLogout         Type = "admin.logout"
)

// LoginEvent describes one authentication outcome.
type LoginEvent struct {
	Type      Type           `json:"type"`
	AdminID   string         `json:"admin_id,omitempty"`
	TenantID  string         `json:"tenant_id"`
	Email     string         `json:"email,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Device    device.Summary `json:"device"`
	Reason    string         `json:"reason,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Observer receives published events on a bus worker goroutine.
type Observer interface {
	Name() string
	Observe(ctx context.Context, event LoginEvent) error
}

// Publisher is the producing side of the bus.
type Publisher interface {
	Publish(event LoginEvent) bool
}
