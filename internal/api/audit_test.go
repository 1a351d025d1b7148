package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/atelierhq/atelier-core/internal/audit"
	"github.com/atelierhq/atelier-core/internal/auth"
)

func TestListAuditEntries(t *testing.T) {
	srv, db := testServer(t)
	admin := createTestUser(t, auth.NewUserRepository(db), "admin@example.com", "Sup3r-Secret!", auth.RoleAdmin)
	token := testRoleToken(t, admin)
	router := srv.buildRouter()

	repo := audit.NewSQLiteRepository(db)
	seed := []audit.Entry{
		{Action: "login", EntityType: "session", UserID: "usr-1"},
		{Action: "create", EntityType: "slot", EntityID: "slot-1", UserID: "usr-1"},
		{Action: "delete", EntityType: "user", EntityID: "usr-2", UserID: "usr-3"},
	}
	for i := range seed {
		if err := repo.Create(context.Background(), &seed[i]); err != nil {
			t.Fatalf("failed to seed audit entry: %v", err)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/audit", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result audit.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode audit list: %v", err)
	}
	if result.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Total)
	}

	// Filters narrow the result set.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/audit?action=create&entity_type=slot", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode audit list: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("expected total 1 for filtered list, got %d", result.Total)
	}
	if len(result.Entries) != 1 || result.Entries[0].EntityID != "slot-1" {
		t.Errorf("unexpected filtered entries: %+v", result.Entries)
	}

	// Limit is applied and reported.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/audit?limit=2", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode audit list: %v", err)
	}
	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries with limit=2, got %d", len(result.Entries))
	}
	if result.Total != 3 {
		t.Errorf("expected total 3 with limit=2, got %d", result.Total)
	}
}

func TestAuditDrainWritesQueuedEntries(t *testing.T) {
	srv, db := testServer(t)

	srv.auditLog("login", "session", "", "usr-1", nil)
	srv.auditLog("create", "slot", "slot-1", "usr-1", map[string]any{"key": "hero"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.drainAuditLog(ctx)
		close(done)
	}()

	// Give the drain goroutine a moment to consume the buffered entries,
	// then cancel; cancellation flushes anything still queued.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drain goroutine did not exit after cancellation")
	}

	result, err := audit.NewSQLiteRepository(db).List(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 audit entries after drain, got %d", result.Total)
	}
}

func TestLoginWritesAuditEntry(t *testing.T) {
	srv, db := testServer(t)
	createTestUser(t, auth.NewUserRepository(db), "owner@example.com", "Sup3r-Secret!", auth.RoleEditor)
	router := srv.buildRouter()

	rec := postJSON(t, router, "/api/v1/auth/login",
		`{"email": "owner@example.com", "password": "Sup3r-Secret!"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d", rec.Code)
	}

	// The handler only enqueues; drain synchronously to flush.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv.drainAuditLog(ctx)

	result, err := audit.NewSQLiteRepository(db).List(context.Background(), audit.Filter{Action: "login"})
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected 1 login audit entry, got %d", result.Total)
	}
	if result.Entries[0].EntityType != "session" {
		t.Errorf("expected entity type session, got %s", result.Entries[0].EntityType)
	}
}
