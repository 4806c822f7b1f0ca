package repository

import (
	"context"
	"testing"

	"github.com/bookbase/bookbase-admin/internal/model"
)

func TestMemoryAuditLog_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryAuditLog(2)

	for _, action := range []model.AuditAction{model.AuditLogin, model.AuditBookCreated, model.AuditLoanCreated} {
		if err := log.Record(ctx, &model.AuditEvent{Action: action}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	events, err := log.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Action != model.AuditLoanCreated || events[1].Action != model.AuditBookCreated {
		t.Errorf("unexpected order: %q, %q", events[0].Action, events[1].Action)
	}
	for _, e := range events {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Errorf("event not stamped: %+v", e)
		}
	}
}

func TestNullableInt(t *testing.T) {
	if nullableInt(0) != nil {
		t.Error("zero should map to NULL")
	}
	if v := nullableInt(5); v == nil || *v != 5 {
		t.Errorf("nullableInt(5) = %v", v)
	}
}
