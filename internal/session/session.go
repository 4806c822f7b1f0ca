// Package session keeps the bearer token of a logged in operator on the
// server side, keyed by an opaque cookie value.
package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrNotFound is returned when the session does not exist or expired.
	ErrNotFound = errors.New("session not found")
	// ErrTokenExpired is returned when login produced an already expired token.
	ErrTokenExpired = errors.New("access token already expired")
)

// Store persists encoded sessions.
type Store interface {
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	// Load returns nil data when id is unknown.
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

// Session is a logged in operator.
type Session struct {
	ID        string
	Token     string
	Email     string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// record is the stored form. The token is kept encrypted.
type record struct {
	SealedToken string    `json:"sealed_token"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Manager creates and resolves sessions.
type Manager struct {
	store  Store
	sealer *sealer
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. secret derives the token encryption key.
func NewManager(store Store, secret string, ttl time.Duration) (*Manager, error) {
	s, err := newSealer(secret)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, errors.New("session TTL must be positive")
	}
	return &Manager{store: store, sealer: s, ttl: ttl, now: time.Now}, nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create stores a new session for token. The lifetime is the configured
// TTL, shortened to the token expiry when the token carries one. login names
// the operator when the token has no subject claim.
func (m *Manager) Create(ctx context.Context, token, login string) (*Session, error) {
	now := m.now().UTC()
	ttl := m.ttl

	email, role, exp, _ := readClaims(token)
	if email == "" {
		email = login
	}
	if !exp.IsZero() {
		remaining := exp.Sub(now)
		if remaining <= 0 {
			return nil, ErrTokenExpired
		}
		if remaining < ttl {
			ttl = remaining
		}
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sealed, err := m.sealer.seal(token)
	if err != nil {
		return nil, err
	}

	rec := record{
		SealedToken: sealed,
		Email:       email,
		Role:        role,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Save(ctx, id.String(), data, ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &Session{
		ID:        id.String(),
		Token:     token,
		Email:     email,
		Role:      role,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Get resolves a session id. Malformed ids and undecryptable records are
// reported as ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return nil, ErrNotFound
	}

	data, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return nil, ErrNotFound
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrNotFound
	}
	if !rec.ExpiresAt.IsZero() && !m.now().Before(rec.ExpiresAt) {
		return nil, ErrNotFound
	}

	token, err := m.sealer.open(rec.SealedToken)
	if err != nil {
		return nil, ErrNotFound
	}

	return &Session{
		ID:        id,
		Token:     token,
		Email:     rec.Email,
		Role:      rec.Role,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Destroy deletes a session. Unknown ids are not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
