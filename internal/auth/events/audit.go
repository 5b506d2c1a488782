package events

import (
	"context"
	"log/slog"

	"smartparking/internal/platform/privacy"
)

// AuditLogger writes every event as a structured log record.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With("component", "audit")}
}

func (a *AuditLogger) Name() string { return "audit_log" }

func (a *AuditLogger) Observe(ctx context.Context, e LoginEvent) error {
	level := slog.LevelInfo
	if e.Type == TypeLoginFailed {
		level = slog.LevelWarn
	}
	a.logger.Log(ctx, level, string(e.Type),
		"admin_id", e.AdminID,
		"tenant_id", e.TenantID,
		"email", privacy.MaskEmail(e.Email),
		"session_id", e.SessionID,
		"ip", privacy.AnonymizeIP(e.IP),
		"device", e.Device.DisplayName,
		"reason", e.Reason,
		"request_id", e.RequestID,
		"timestamp", e.Timestamp,
	)
	return nil
}
