package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuthEvent describes a security-relevant authentication outcome
type AuthEvent struct {
	Event         string
	UserID        string
	Email         string
	IPAddress     string
	Success       bool
	FailureReason string
	FailedCount   int
	LockUntil     *time.Time
}

// AuditLogger writes security events to the structured log stream.
// Persistent audit rows are written separately by the audit service.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuth logs a login, refresh or logout outcome. Emails are always masked.
func (al *AuditLogger) LogAuth(ctx context.Context, event AuthEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.Event),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	if event.FailedCount > 0 {
		attrs = append(attrs, slog.Int("failed_login_count", event.FailedCount))
	}
	if event.LockUntil != nil {
		attrs = append(attrs, slog.Time("lock_until", *event.LockUntil))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogAdminAction logs an administrative change made by actorID to targetID
func (al *AuditLogger) LogAdminAction(ctx context.Context, action, actorID, targetID string, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "admin"),
		slog.String("event_type", action),
		slog.String("actor_id", actorID),
		slog.String("target_id", targetID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}
