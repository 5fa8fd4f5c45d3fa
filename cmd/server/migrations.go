package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/phrazzld/omniprompt/internal/redact"
	"github.com/phrazzld/omniprompt/migrations"
)

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

// Printf implements goose.Logger by forwarding messages to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger by forwarding messages to slog.Error.
// It deliberately does not exit; the error is returned to main, which
// owns process exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// runMigrations applies all pending embedded migrations to the database.
func runMigrations(ctx context.Context, dbURL string, logger *slog.Logger) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty: check your configuration")
	}

	migrationLogger := logger.With("component", "migrations")
	start := time.Now()

	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			migrationLogger.Error("failed to close migration connection", "error", closeErr)
		}
	}()

	if err := goose.UpContext(ctx, db, "."); err != nil {
		migrationLogger.Error("migration failed", "error", redact.Error(err))
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	migrationLogger.Info("migrations applied", "duration", time.Since(start))
	return nil
}
