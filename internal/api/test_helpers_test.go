package api

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atelierhq/atelier-core/internal/audit"
	"github.com/atelierhq/atelier-core/internal/auth"
	"github.com/atelierhq/atelier-core/internal/content"
	"github.com/atelierhq/atelier-core/internal/infrastructure/config"
	"github.com/atelierhq/atelier-core/internal/infrastructure/logging"
)

const testSecret = "test-secret-key-with-enough-length-for-hs256"

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'viewer',
			is_active     INTEGER NOT NULL DEFAULT 1,
			last_login_at TEXT,
			created_by    TEXT,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		) STRICT;

		CREATE TABLE refresh_tokens (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			family_id  TEXT NOT NULL,
			token_hash TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			revoked    INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		) STRICT;
		CREATE UNIQUE INDEX idx_refresh_tokens_hash ON refresh_tokens (token_hash);

		CREATE TABLE media_slots (
			id         TEXT PRIMARY KEY,
			key        TEXT NOT NULL UNIQUE,
			kind       TEXT NOT NULL,
			title      TEXT NOT NULL,
			url        TEXT,
			embed_id   TEXT,
			owner_id   TEXT NOT NULL,
			updated_by TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE audit_logs (
			id          TEXT PRIMARY KEY,
			action      TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id   TEXT,
			user_id     TEXT,
			details     TEXT,
			created_at  TEXT NOT NULL
		) STRICT;
	`
	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close() //nolint:errcheck // test cleanup on error path
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}

// testServer creates a fully wired API server backed by an in-memory database.
func testServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()

	db := setupTestDB(t)
	logger := &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	userRepo := auth.NewUserRepository(db)
	tokenRepo := auth.NewTokenRepository(db)

	authService := auth.NewService(userRepo, tokenRepo, auth.Config{
		Secret:            testSecret,
		AccessTTLMinutes:  1440,
		RefreshTTLMinutes: 10080,
	}, logger.Logger)

	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:          testSecret,
				AccessTokenTTL:  1440,
				RefreshTokenTTL: 10080,
			},
		},
		Logger:      logger,
		AuthService: authService,
		UserRepo:    userRepo,
		TokenRepo:   tokenRepo,
		SlotRepo:    content.NewSlotRepository(db),
		AuditRepo:   audit.NewSQLiteRepository(db),
		Policy:      auth.DefaultPolicy(),
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("failed to create test server: %v", err)
	}

	return srv, db
}

// createTestUser inserts a user with a hashed password and returns it.
func createTestUser(t *testing.T, repo auth.UserRepository, email, password string, role auth.Role) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &auth.User{
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// testRoleToken issues a signed access token for a user with the given role.
func testRoleToken(t *testing.T, user *auth.User) string {
	t.Helper()

	token, err := auth.GenerateAccessToken(user, testSecret, 60)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}
