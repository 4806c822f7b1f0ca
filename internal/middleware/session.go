package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bookbase/bookbase-admin/internal/session"
)

// SessionResolver resolves a session cookie value.
type SessionResolver interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	Logger     *slog.Logger
	Sessions   SessionResolver
	CookieName string
	// LoginPath is where requests without a session are sent.
	LoginPath string
}

// LoadSession attaches the session named by the cookie to the request
// context when it exists. Requests without one pass through unchanged.
func LoadSession(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s := resolveSession(cfg, r); s != nil {
				r = r.WithContext(session.WithSession(r.Context(), s))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession redirects to the login page unless the request carries a
// valid session. Must be applied after LoadSession.
func RequireSession(cfg SessionConfig) func(http.Handler) http.Handler {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session.FromContext(r.Context()) == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveSession(cfg SessionConfig, r *http.Request) *session.Session {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	s, err := cfg.Sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			cfg.Logger.Warn("session lookup failed",
				slog.String("error", err.Error()),
				slog.String("request_id", GetRequestID(r.Context())),
			)
		}
		return nil
	}
	return s
}
