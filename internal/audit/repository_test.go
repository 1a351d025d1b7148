package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	schema := `
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
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestAuditCreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	entry := &Entry{
		Action:     "update",
		EntityType: "slot",
		EntityID:   "slot-abc12345",
		UserID:     "usr-editor1",
		Details:    map[string]any{"field": "title"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if entry.ID == "" {
		t.Error("expected generated entry ID")
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("total = %d, len = %d, want 1/1", result.Total, len(result.Entries))
	}
	got := result.Entries[0]
	if got.Action != "update" || got.EntityType != "slot" {
		t.Errorf("got action=%q entity=%q", got.Action, got.EntityType)
	}
	if got.Details["field"] != "title" {
		t.Errorf("details = %v", got.Details)
	}
}

func TestAuditListFilters(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	seed := []Entry{
		{Action: "login", EntityType: "session", UserID: "usr-a"},
		{Action: "create", EntityType: "slot", EntityID: "slot-1", UserID: "usr-a"},
		{Action: "update", EntityType: "slot", EntityID: "slot-1", UserID: "usr-b"},
		{Action: "delete", EntityType: "user", EntityID: "usr-gone", UserID: "usr-b"},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by action", Filter{Action: "login"}, 1},
		{"by entity type", Filter{EntityType: "slot"}, 2},
		{"by entity id", Filter{EntityID: "slot-1"}, 2},
		{"by user", Filter{UserID: "usr-b"}, 2},
		{"combined", Filter{EntityType: "slot", UserID: "usr-a"}, 1},
		{"no match", Filter{Action: "nope"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if result.Total != tt.want {
				t.Errorf("total = %d, want %d", result.Total, tt.want)
			}
			if len(result.Entries) != tt.want {
				t.Errorf("len = %d, want %d", len(result.Entries), tt.want)
			}
		})
	}
}

func TestAuditListPagination(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &Entry{
			Action:     "update",
			EntityType: "slot",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 5 {
		t.Errorf("total = %d, want 5", result.Total)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("len = %d, want 2", len(result.Entries))
	}
	// Most recent first, offset skips the newest.
	if !result.Entries[0].CreatedAt.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("first entry at %v, want %v", result.Entries[0].CreatedAt, base.Add(3*time.Minute))
	}
}

func TestAuditListEmptyIsNotNil(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Entries == nil {
		t.Error("expected empty slice, got nil")
	}
}
