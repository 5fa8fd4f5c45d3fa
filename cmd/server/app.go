package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phrazzld/omniprompt/internal/config"
	"github.com/phrazzld/omniprompt/internal/events"
	"github.com/phrazzld/omniprompt/internal/platform/logger"
	"github.com/phrazzld/omniprompt/internal/platform/postgres"
	"github.com/phrazzld/omniprompt/internal/prompt"
	"github.com/phrazzld/omniprompt/internal/service"
	"github.com/phrazzld/omniprompt/internal/service/auth"
	"github.com/phrazzld/omniprompt/internal/store"
	"github.com/phrazzld/omniprompt/internal/task"
)

// application holds the composed dependencies of the running server.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	pool        *pgxpool.Pool
	jwtService  auth.JWTService
	verifier    auth.TokenVerifier
	runService  *service.RunService
	recordStore store.RecordStore
	library     *prompt.Library
	runner      *task.Runner
}

// initializeApp loads configuration and wires up application components
// in dependency order: config, logger, database, stores, services,
// background runner.
func initializeApp(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"provider", cfg.Provider.Name,
		"model", cfg.Provider.Model,
		"workers", cfg.Generation.Workers)

	if err := runMigrations(ctx, cfg.Database.URL, appLogger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	recordStore := postgres.NewRecordStore(pool, appLogger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	emitter := events.NewInMemoryEmitter(appLogger)
	emitter.RegisterHandler(events.NewLogHandler(appLogger))

	runner := task.NewRunner(task.DefaultRunnerConfig(), appLogger)
	runner.Start()

	runService, err := service.NewRunService(
		recordStore,
		task.NewRegistry(),
		runner,
		service.NewGenerator,
		emitter,
		cfg.Provider.Settings(),
		cfg.Generation.Workers,
		appLogger,
	)
	if err != nil {
		runner.Stop()
		pool.Close()
		return nil, fmt.Errorf("failed to create run service: %w", err)
	}

	return &application{
		config:      cfg,
		logger:      appLogger,
		pool:        pool,
		jwtService:  jwtService,
		verifier:    auth.NewBcryptVerifier(),
		runService:  runService,
		recordStore: recordStore,
		library:     prompt.NewLibrary(cfg.Generation.TemplateLibrary),
		runner:      runner,
	}, nil
}

// cleanup releases application resources in reverse dependency order.
// Safe to call more than once.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
		app.runner = nil
	}
	if app.pool != nil {
		app.pool.Close()
		app.pool = nil
	}
	app.logger.Info("application cleanup completed")
}
