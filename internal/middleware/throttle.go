package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bookbase/bookbase-admin/internal/cache"
	"github.com/bookbase/bookbase-admin/internal/metrics"
)

// LoginThrottler counts login attempts of a client IP.
type LoginThrottler interface {
	Hit(ctx context.Context, client string) (cache.Attempt, error)
}

// LoginThrottleConfig holds configuration for the login throttle.
type LoginThrottleConfig struct {
	Logger   *slog.Logger
	Throttle LoginThrottler
	Enabled  bool
	// Metrics counts throttled logins. Optional.
	Metrics metrics.Recorder
}

// ThrottleLogin returns middleware that limits login attempts per IP.
// Only POST requests are counted.
func ThrottleLogin(cfg LoginThrottleConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cfg.Throttle == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)

			attempt, err := cfg.Throttle.Hit(r.Context(), ip)
			if err != nil {
				cfg.Logger.Error("login throttle check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				// Fail open - allow request
				next.ServeHTTP(w, r)
				return
			}

			if !attempt.Allowed {
				if cfg.Metrics != nil {
					cfg.Metrics.IncLogin("throttled")
				}
				cfg.Logger.Warn("login attempts exceeded",
					slog.String("ip", ip),
					slog.Int64("retry_after_seconds", retryAfterSeconds(attempt.RetryAfter)),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSeconds(attempt.RetryAfter), 10))
				writeThrottled(w, attempt.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(d time.Duration) int64 {
	s := int64(d.Seconds())
	if s < 1 {
		s = 1
	}
	return s
}

// writeThrottled writes a 429 Too Many Requests response.
func writeThrottled(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = fmt.Fprintf(w, "Muitas tentativas de login. Tente novamente em %d segundos.\n", retryAfterSeconds(retryAfter))
}

// getClientIP extracts the client IP from the request.
// chi's RealIP has already applied X-Forwarded-For / X-Real-IP to
// RemoteAddr; the headers are still checked for direct use.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
