// Atelier Core - portfolio site backend
//
// This is the main entry point for the Atelier Core application: the
// authentication, authorisation, and content service behind the Atelier
// portfolio site. It exposes a versioned REST API for session management,
// user administration, media slot content, and the audit trail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/atelierhq/atelier-core/migrations"

	"github.com/atelierhq/atelier-core/internal/api"
	"github.com/atelierhq/atelier-core/internal/audit"
	"github.com/atelierhq/atelier-core/internal/auth"
	"github.com/atelierhq/atelier-core/internal/content"
	"github.com/atelierhq/atelier-core/internal/infrastructure/config"
	"github.com/atelierhq/atelier-core/internal/infrastructure/database"
	"github.com/atelierhq/atelier-core/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Atelier Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	userRepo := auth.NewUserRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)
	slotRepo := content.NewSlotRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Seed the initial superadmin on an empty database. The generated
	// password is printed once and never stored in plain text.
	if _, seedErr := auth.SeedSuperAdmin(ctx, userRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding superadmin: %w", seedErr)
	}

	// Auth service: login, refresh rotation, logout, token reaping
	authService := auth.NewService(userRepo, tokenRepo, auth.Config{
		Secret:            cfg.Security.JWT.Secret,
		AccessTTLMinutes:  cfg.Security.JWT.AccessTokenTTL,
		RefreshTTLMinutes: cfg.Security.JWT.RefreshTokenTTL,
	}, log.Logger)
	authService.Start(ctx)
	log.Info("auth service started",
		"access_ttl_minutes", cfg.Security.JWT.AccessTokenTTL,
		"refresh_ttl_minutes", cfg.Security.JWT.RefreshTokenTTL,
	)

	// REST API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		Security:    cfg.Security,
		Logger:      log,
		AuthService: authService,
		UserRepo:    userRepo,
		TokenRepo:   tokenRepo,
		SlotRepo:    slotRepo,
		AuditRepo:   auditRepo,
		Policy: auth.Policy{
			MinLength:      cfg.Security.Password.MinLength,
			RequireUpper:   cfg.Security.Password.RequireUpper,
			RequireLower:   cfg.Security.Password.RequireLower,
			RequireDigit:   cfg.Security.Password.RequireDigit,
			RequireSpecial: cfg.Security.Password.RequireSpecial,
		},
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify infrastructure is healthy before declaring readiness
	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (graceful drain)
	// 2. Database

	log.Info("Atelier Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ATELIER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ATELIER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
