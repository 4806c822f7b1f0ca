package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef-secret"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("SESSION_SECRET", testSecret)
}

func TestLoad_WithRequiredVars(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.RedisURL != "redis://localhost:6379" {
		t.Errorf("expected RedisURL to be set, got %s", cfg.RedisURL)
	}
	if cfg.SessionSecret != testSecret {
		t.Errorf("expected SessionSecret to be set, got %s", cfg.SessionSecret)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("SESSION_SECRET", "")
	os.Unsetenv("REDIS_URL")
	os.Unsetenv("SESSION_SECRET")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required vars, got nil")
	}
}

func TestConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("expected default AppEnv 'development', got %s", cfg.AppEnv)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("expected default AppPort 8080, got %d", cfg.AppPort)
	}
	if cfg.APIBaseURL != "http://localhost:8002" {
		t.Errorf("expected default APIBaseURL, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("expected default APITimeout 15s, got %s", cfg.APITimeout)
	}
	if cfg.PageSize != 10 {
		t.Errorf("expected default PageSize 10, got %d", cfg.PageSize)
	}
	if cfg.MaxUploadSize != 5<<20 {
		t.Errorf("expected default MaxUploadSize 5MB, got %d", cfg.MaxUploadSize)
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Errorf("expected default SessionTTL 8h, got %s", cfg.SessionTTL)
	}
	if cfg.SessionCookieName != "bookbase_session" {
		t.Errorf("expected default cookie name, got %s", cfg.SessionCookieName)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty DatabaseURL, got %s", cfg.DatabaseURL)
	}
	if !cfg.LoginThrottleEnabled || cfg.LoginMaxAttempts != 5 || cfg.LoginAttemptWindow != time.Minute {
		t.Errorf("unexpected login throttle defaults: %v %d %s",
			cfg.LoginThrottleEnabled, cfg.LoginMaxAttempts, cfg.LoginAttemptWindow)
	}
	if cfg.RedisPoolSize != 10 || cfg.DBMaxConns != 4 || cfg.AuditAutoMigrate {
		t.Errorf("unexpected pool defaults: redis=%d db=%d migrate=%v",
			cfg.RedisPoolSize, cfg.DBMaxConns, cfg.AuditAutoMigrate)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel 'info', got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected default LogFormat 'json', got %s", cfg.LogFormat)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		APIBaseURL:    "https://api.bookbase.dev",
		SessionSecret: testSecret,
		SessionTTL:    time.Hour,
		PageSize:      10,
		MaxUploadSize: 1,

		LoginAttemptWindow: time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative api url", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"ftp api url", func(c *Config) { c.APIBaseURL = "ftp://host" }, true},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, true},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, true},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, true},
		{"zero upload size", func(c *Config) { c.MaxUploadSize = 0 }, true},
		{"zero attempt window", func(c *Config) { c.LoginAttemptWindow = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return false")
	}
}

func TestConfig_SecureCookies(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if cfg.SecureCookies() {
		t.Error("expected insecure cookies in development by default")
	}

	cfg.CookieSecure = true
	if !cfg.SecureCookies() {
		t.Error("expected COOKIE_SECURE to enable the flag")
	}

	cfg = &Config{AppEnv: "production"}
	if !cfg.SecureCookies() {
		t.Error("expected secure cookies in production")
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	content := "API_BASE_URL=http://from-file:8002\nPAGE_SIZE=25\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("API_BASE_URL", "http://from-env:8002")
	t.Setenv("PAGE_SIZE", "")
	os.Unsetenv("PAGE_SIZE")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()
	t.Cleanup(func() { os.Unsetenv("PAGE_SIZE") })

	if got := os.Getenv("API_BASE_URL"); got != "http://from-env:8002" {
		t.Errorf("API_BASE_URL = %q, want the environment value", got)
	}
	if got := os.Getenv("PAGE_SIZE"); got != "25" {
		t.Errorf("PAGE_SIZE = %q, want 25 from .env", got)
	}
}
