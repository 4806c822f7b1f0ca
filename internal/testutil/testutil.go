// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/bookbase/bookbase-admin/migrations"
)

// RequireEnv returns the value of key, skipping the test when it is unset.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// auditLockKey is the advisory lock taken by tests that rebuild the audit schema.
const auditLockKey int64 = 0x626f6f6b

// LockAuditSchema holds an advisory lock on a dedicated connection until
// the test ends, so packages running in parallel do not reset the schema
// under each other.
func LockAuditSchema(ctx context.Context, t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", auditLockKey); err != nil {
		conn.Release()
		t.Fatalf("take audit schema lock: %v", err)
	}

	t.Cleanup(func() {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", auditLockKey); err != nil {
			t.Errorf("release audit schema lock: %v", err)
		}
	})
}

// ResetAuditSchema rolls every audit migration back and applies them again.
func ResetAuditSchema(ctx context.Context, t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := migrations.Reset(ctx, db); err != nil {
		t.Fatalf("reset audit schema: %v", err)
	}
}

// FlushRedis empties the selected Redis database.
func FlushRedis(ctx context.Context, t testing.TB, client *redis.Client) {
	t.Helper()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
}
