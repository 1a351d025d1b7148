package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func storedToken(userID, raw string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		UserID:    userID,
		TokenHash: HashToken(raw),
		ExpiresAt: expiresAt,
	}
}

func TestTokenRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	tok := storedToken(user.ID, "raw-token-1", time.Now().Add(time.Hour))
	if err := repo.Create(ctx, tok); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tok.ID == "" || tok.FamilyID == "" {
		t.Fatal("Create() should generate ID and family")
	}

	got, err := repo.GetByTokenHash(ctx, HashToken("raw-token-1"))
	if err != nil {
		t.Fatalf("GetByTokenHash() error = %v", err)
	}
	if got.UserID != user.ID || got.Revoked {
		t.Errorf("unexpected token record: %+v", got)
	}

	if _, err := repo.GetByTokenHash(ctx, HashToken("unknown")); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("GetByTokenHash() missing = %v, want ErrTokenInvalid", err)
	}
}

func TestTokenRepository_Rotate(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	old := storedToken(user.ID, "raw-old", time.Now().Add(time.Hour))
	if err := repo.Create(ctx, old); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	successor := storedToken(user.ID, "raw-new", time.Now().Add(time.Hour))
	successor.FamilyID = old.FamilyID
	if err := repo.Rotate(ctx, old.ID, successor); err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}

	consumed, err := repo.GetByTokenHash(ctx, HashToken("raw-old"))
	if err != nil {
		t.Fatalf("GetByTokenHash() error = %v", err)
	}
	if !consumed.Revoked {
		t.Error("rotated-away token should be revoked")
	}

	fresh, err := repo.GetByTokenHash(ctx, HashToken("raw-new"))
	if err != nil {
		t.Fatalf("GetByTokenHash() error = %v", err)
	}
	if fresh.Revoked {
		t.Error("successor should not be revoked")
	}
	if fresh.FamilyID != old.FamilyID {
		t.Error("successor should share the family")
	}
}

func TestTokenRepository_RevokeFamily(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	first := storedToken(user.ID, "raw-1", time.Now().Add(time.Hour))
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second := storedToken(user.ID, "raw-2", time.Now().Add(time.Hour))
	second.FamilyID = first.FamilyID
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.RevokeFamily(ctx, first.FamilyID); err != nil {
		t.Fatalf("RevokeFamily() error = %v", err)
	}

	for _, raw := range []string{"raw-1", "raw-2"} {
		got, err := repo.GetByTokenHash(ctx, HashToken(raw))
		if err != nil {
			t.Fatalf("GetByTokenHash(%s) error = %v", raw, err)
		}
		if !got.Revoked {
			t.Errorf("token %s should be revoked with its family", raw)
		}
	}
}

func TestTokenRepository_RevokeAllForUser(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	// Two independent families (e.g., two devices)
	for _, raw := range []string{"device-a", "device-b"} {
		if err := repo.Create(ctx, storedToken(user.ID, raw, time.Now().Add(time.Hour))); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := repo.RevokeAllForUser(ctx, user.ID); err != nil {
		t.Fatalf("RevokeAllForUser() error = %v", err)
	}

	for _, raw := range []string{"device-a", "device-b"} {
		got, err := repo.GetByTokenHash(ctx, HashToken(raw))
		if err != nil {
			t.Fatalf("GetByTokenHash(%s) error = %v", raw, err)
		}
		if !got.Revoked {
			t.Errorf("token %s should be revoked", raw)
		}
	}
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db := testDB(t)
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)
	repo := NewTokenRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, storedToken(user.ID, "stale", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, storedToken(user.ID, "live", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", n)
	}

	if _, err := repo.GetByTokenHash(ctx, HashToken("stale")); !errors.Is(err, ErrTokenInvalid) {
		t.Error("expired token should be gone")
	}
	if _, err := repo.GetByTokenHash(ctx, HashToken("live")); err != nil {
		t.Errorf("live token should remain, got %v", err)
	}
}
