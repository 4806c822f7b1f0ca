// Package main applies the audit log migrations.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/bookbase/bookbase-admin/migrations"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status, reset")
	flag.Parse()

	loadEnvFiles()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(*command, logger); err != nil {
		logger.Error("migration failed", slog.String("command", *command), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(command string, logger *slog.Logger) error {
	apply, ok := commands[command]
	if !ok {
		return fmt.Errorf("unknown command %q, use: up, down, status, reset", command)
	}

	dsn, err := databaseURL()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := apply(ctx, db); err != nil {
		return err
	}
	logger.Info("migration command completed", slog.String("command", command))
	return nil
}

var commands = map[string]func(context.Context, *sql.DB) error{
	"up":     migrations.Up,
	"down":   migrations.Down,
	"status": migrations.Status,
	"reset":  migrations.Reset,
}
