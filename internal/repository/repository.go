// Package repository provides the PostgreSQL access layer for the audit log.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bookbase/bookbase-admin/migrations"
)

// Repository owns the pool behind the audit log.
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL. A maxConns of zero keeps the pgx default.
func New(ctx context.Context, databaseURL string, maxConns int32) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("reach audit database: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Migrate applies pending audit log migrations through the pool.
func (r *Repository) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	return nil
}

// Ping reports whether the database answers. The readiness check uses it.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool exposes the raw pool to integration tests.
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}
