package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bookbase/bookbase-admin/internal/metrics"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/repository"
	"github.com/bookbase/bookbase-admin/internal/session"
)

// ErrInvalidCredentials is returned when the API rejects the login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginAPI is the part of the bookbase client used to log in.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*model.Token, error)
}

// SessionManager creates and destroys console sessions.
type SessionManager interface {
	Create(ctx context.Context, token, login string) (*session.Session, error)
	Destroy(ctx context.Context, id string) error
}

// AuthService logs operators in and out.
type AuthService struct {
	api      LoginAPI
	sessions SessionManager
	audit    auditor
	metrics  metrics.Recorder
}

// NewAuthService creates an AuthService.
func NewAuthService(api LoginAPI, sessions SessionManager, audit repository.AuditLog, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		api:      api,
		sessions: sessions,
		audit:    newAuditor(audit, logger),
		metrics:  recorder,
	}
}

// Login exchanges the credentials for a token and opens a session holding
// it. A rejected login is returned as the API error so its detail can be
// shown.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.metrics.IncLogin("failed")
		return nil, ErrMissingFields
	}

	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.metrics.IncLogin("failed")
		return nil, err
	}
	if token.AccessToken == "" {
		s.metrics.IncLogin("failed")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, token.AccessToken, email)
	if err != nil {
		s.metrics.IncLogin("failed")
		return nil, err
	}
	s.metrics.IncLogin("success")

	s.audit.record(session.WithSession(ctx, sess), model.AuditLogin, 0, sess.Email)
	return sess, nil
}

// Logout deletes the session and every view state kept for it.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	return s.sessions.Destroy(ctx, id)
}
