package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access-secret-32-characters-long!")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret-32-characters-long")
	t.Setenv("DB_PASSWORD", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   interface{}
		expected interface{}
	}{
		{"AccessTokenExpiry", cfg.Auth.AccessTokenExpiry, 15 * time.Minute},
		{"RefreshTokenExpiry", cfg.Auth.RefreshTokenExpiry, 14 * 24 * time.Hour},
		{"LockoutThreshold", cfg.Auth.LockoutThreshold, 7},
		{"LockoutDuration", cfg.Auth.LockoutDuration, 30 * time.Minute},
		{"RefreshScanLimit", cfg.Auth.RefreshScanLimit, 25},
		{"RefreshRotation", cfg.Auth.RefreshRotation, false},
		{"BcryptCost", cfg.Auth.BcryptCost, 12},
		{"Port", cfg.Server.Port, "4000"},
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestLoad_CustomPolicy(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRY", "1h")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "72h")
	t.Setenv("LOCKOUT_THRESHOLD", "5")
	t.Setenv("LOCKOUT_DURATION", "10m")
	t.Setenv("REFRESH_ROTATION", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.AccessTokenExpiry != time.Hour {
		t.Errorf("AccessTokenExpiry = %v, want 1h", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.RefreshTokenExpiry != 72*time.Hour {
		t.Errorf("RefreshTokenExpiry = %v, want 72h", cfg.Auth.RefreshTokenExpiry)
	}
	if cfg.Auth.LockoutThreshold != 5 {
		t.Errorf("LockoutThreshold = %d, want 5", cfg.Auth.LockoutThreshold)
	}
	if cfg.Auth.LockoutDuration != 10*time.Minute {
		t.Errorf("LockoutDuration = %v, want 10m", cfg.Auth.LockoutDuration)
	}
	if !cfg.Auth.RefreshRotation {
		t.Error("RefreshRotation = false, want true")
	}
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing secrets")
	}

	t.Setenv("JWT_ACCESS_SECRET", "access-secret-32-characters-long!")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_REFRESH_SECRET") {
		t.Fatalf("Load() = %v, want JWT_REFRESH_SECRET error", err)
	}
}

func TestLoad_SecretsMustDiffer(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_REFRESH_SECRET", "access-secret-32-characters-long!")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("Load() = %v, want secrets-must-differ error", err)
	}
}

func TestLoad_ProductionSecretLength(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_ACCESS_SECRET", "only-twenty-chars-xx")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for short production secret")
	}
}

func TestLoad_InvalidLockoutThreshold(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOCKOUT_THRESHOLD", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for zero threshold")
	}
}

func TestLoad_BcryptCostFloor(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Auth.BcryptCost != MinBcryptCost {
		t.Errorf("BcryptCost = %d, want %d", cfg.Auth.BcryptCost, MinBcryptCost)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "qms", SSLMode: "disable"}
	if got := c.DSN(); !strings.Contains(got, "host=db") || !strings.Contains(got, "dbname=qms") {
		t.Errorf("DSN() = %q", got)
	}

	c.URL = "postgres://u:p@db:5432/qms"
	if got := c.DSN(); got != c.URL {
		t.Errorf("DSN() = %q, want DATABASE_URL", got)
	}
}
