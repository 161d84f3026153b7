package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"inspector@monroy.com", "i********@******.com"},
		{"a@b.io", "a@*.io"},
		{"no-at-sign", "[invalid-email]"},
		{"x@localhost", "x@localhost"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizedEmail(tt.input), tt.input)
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("refreshToken=abc"))
	assert.True(t, SanitizeQueryString("email=a@b.com"))
	assert.False(t, SanitizeQueryString("page=2&pageSize=20"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestAuditLogger_LogAuth(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	until := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	al.LogAuth(context.Background(), AuthEvent{
		Event:         "login",
		UserID:        "u1",
		Email:         "inspector@monroy.com",
		Success:       false,
		FailureReason: "account_locked",
		FailedCount:   7,
		LockUntil:     &until,
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "login", entry["event_type"])
	assert.Equal(t, "i********@******.com", entry["email"])
	assert.Equal(t, float64(7), entry["failed_login_count"])
	assert.NotContains(t, buf.String(), "inspector@monroy.com")
}

func TestAuditLogger_LogAdminAction(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAdminAction(context.Background(), "USER_STATUS_UPDATE", "admin-1", "user-2", map[string]string{"status": "DISABLED"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "admin-1", entry["actor_id"])
	assert.Equal(t, "DISABLED", entry["status"])
}
