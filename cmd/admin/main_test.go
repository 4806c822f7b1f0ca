package main

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"redis://:s3cret@localhost:6379/0", "redis://redacted@localhost:6379/0"},
		{"postgres://bookbase:s3cret@db:5432/audit?sslmode=disable", "postgres://bookbase@db:5432/audit?sslmode=disable"},
		{"http://localhost:8002", "http://localhost:8002"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, redactURL(tt.raw), tt.raw)
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://bookbase:s3cret@db:5432/audit"
	err := errors.New("connect " + dsn + " failed: password=s3cret rejected")

	got := sanitizeError(err, dsn)

	assert.NotContains(t, got, "s3cret")
	assert.Contains(t, got, "postgres://bookbase@db:5432/audit")
	assert.Contains(t, got, "password=redacted")
	assert.Empty(t, sanitizeError(nil))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
