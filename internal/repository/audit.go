package repository

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/bookbase/bookbase-admin/internal/model"
)

// AuditLog records console actions.
type AuditLog interface {
	Record(ctx context.Context, event *model.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]model.AuditEvent, error)
}

// AuditRepository stores audit events in PostgreSQL.
type AuditRepository struct {
	repo *Repository
	now  func() time.Time
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(repo *Repository) *AuditRepository {
	return &AuditRepository{repo: repo, now: time.Now}
}

// Record inserts event, assigning its ID and CreatedAt when unset.
func (r *AuditRepository) Record(ctx context.Context, event *model.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}
	if event.ID == "" {
		event.ID = ulid.MustNew(ulid.Timestamp(event.CreatedAt), rand.Reader).String()
	}

	query := `
		INSERT INTO audit_events (id, action, actor, subject_id, summary, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.repo.pool.Exec(ctx, query,
		event.ID,
		string(event.Action),
		event.Actor,
		nullableInt(event.SubjectID),
		event.Summary,
		event.RequestID,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns the newest events first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, action, actor, COALESCE(subject_id, 0), summary, request_id, created_at
		FROM audit_events
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.repo.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AuditEvent, error) {
		var e model.AuditEvent
		var action string
		err := row.Scan(&e.ID, &action, &e.Actor, &e.SubjectID, &e.Summary, &e.RequestID, &e.CreatedAt)
		e.Action = model.AuditAction(action)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}

func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// NoopAuditLog is used when no database is configured.
type NoopAuditLog struct{}

func (NoopAuditLog) Record(context.Context, *model.AuditEvent) error { return nil }

func (NoopAuditLog) Recent(context.Context, int) ([]model.AuditEvent, error) { return nil, nil }

// MemoryAuditLog keeps the newest events in process. It backs the activity
// page when no database is configured.
type MemoryAuditLog struct {
	mu     sync.Mutex
	events []model.AuditEvent
	max    int
	now    func() time.Time
}

// NewMemoryAuditLog keeps at most max events.
func NewMemoryAuditLog(max int) *MemoryAuditLog {
	if max <= 0 {
		max = 200
	}
	return &MemoryAuditLog{max: max, now: time.Now}
}

// Record stores event, assigning its ID and CreatedAt when unset.
func (m *MemoryAuditLog) Record(_ context.Context, event *model.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = m.now().UTC()
	}
	if event.ID == "" {
		event.ID = ulid.MustNew(ulid.Timestamp(event.CreatedAt), rand.Reader).String()
	}
	m.events = append(m.events, *event)
	if len(m.events) > m.max {
		m.events = m.events[len(m.events)-m.max:]
	}
	return nil
}

// Recent returns the newest events first.
func (m *MemoryAuditLog) Recent(_ context.Context, limit int) ([]model.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.events) {
		limit = len(m.events)
	}
	out := make([]model.AuditEvent, 0, limit)
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}
