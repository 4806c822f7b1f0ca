// Package service implements the console use cases on top of the bookbase
// API client.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bookbase/bookbase-admin/internal/middleware"
	"github.com/bookbase/bookbase-admin/internal/model"
	"github.com/bookbase/bookbase-admin/internal/repository"
	"github.com/bookbase/bookbase-admin/internal/session"
)

// Validation errors.
var (
	ErrMissingFields = errors.New("required fields missing")
	ErrInvalidNumber = errors.New("invalid numeric field")
	ErrInvalidDate   = errors.New("invalid date")
	ErrDueDateInPast = errors.New("due date before today")
	ErrCoverType     = errors.New("cover file type not allowed")
	ErrCoverTooLarge = errors.New("cover file too large")
)

// Mutation outcomes reported to metrics.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeSuccess
}

// auditor writes audit events without failing the calling action.
type auditor struct {
	log    repository.AuditLog
	logger *slog.Logger
}

func newAuditor(log repository.AuditLog, logger *slog.Logger) auditor {
	if log == nil {
		log = repository.NoopAuditLog{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return auditor{log: log, logger: logger}
}

func (a auditor) record(ctx context.Context, action model.AuditAction, subjectID int, summary string) {
	event := &model.AuditEvent{
		Action:    action,
		Actor:     actor(ctx),
		SubjectID: subjectID,
		Summary:   summary,
		RequestID: middleware.GetRequestID(ctx),
	}
	if err := a.log.Record(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "audit record failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
			slog.String("request_id", event.RequestID),
		)
	}
}

func actor(ctx context.Context) string {
	if s := session.FromContext(ctx); s != nil {
		return s.Email
	}
	return ""
}
