package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/oakmund/taskdeck-api/internal/config"
	"github.com/oakmund/taskdeck-api/internal/platform/postgres"
	"github.com/oakmund/taskdeck-api/internal/service"
	"github.com/oakmund/taskdeck-api/internal/service/auth"
	"github.com/oakmund/taskdeck-api/internal/store"
	"github.com/oakmund/taskdeck-api/internal/worker"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore     store.UserStore
	taskStore     store.TaskStore
	categoryStore store.CategoryStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService
	categoryService  service.CategoryService

	// Background jobs
	reconciler *worker.Reconciler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts the core dependencies that must be established
// before application wiring: configuration, logger, and database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewTaskStore(db, logger)
	app.categoryStore = postgres.NewCategoryStore(db, logger)

	app.taskService = service.NewTaskService(app.taskStore, app.categoryStore, logger)
	app.categoryService = service.NewCategoryService(app.categoryStore, app.taskStore, db, logger)

	if cfg.Worker.ReconcileSchedule != "" {
		app.reconciler = worker.NewReconciler(
			app.categoryService, cfg.Worker.ReconcileSchedule, logger)
		if err := app.reconciler.Start(); err != nil {
			return nil, fmt.Errorf("failed to start count reconciler: %w", err)
		}
	} else {
		logger.Warn("task count reconciliation disabled; counter drift will not be repaired")
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.reconciler != nil {
		app.reconciler.Stop()
	}

	if app.db != nil {
		closeDatabase(app.db, app.logger)
	}

	app.logger.Info("application shutdown completed")
}
