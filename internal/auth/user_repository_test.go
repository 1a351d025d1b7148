package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &User{
		Email:        "Editor@Example.com",
		DisplayName:  "An Editor",
		PasswordHash: "$argon2id$fake",
		Role:         RoleEditor,
		IsActive:     true,
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() should generate an ID")
	}

	// Stored normalised; lookup is case-insensitive
	got, err := repo.GetByEmail(ctx, "EDITOR@example.COM")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.Email != "editor@example.com" {
		t.Errorf("Email = %q, want normalised %q", got.Email, "editor@example.com")
	}
	if got.Role != RoleEditor {
		t.Errorf("Role = %q, want %q", got.Role, RoleEditor)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.ID != user.ID {
		t.Errorf("GetByID() returned %q, want %q", byID.ID, user.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &User{Email: "dup@example.com", DisplayName: "First", PasswordHash: "h", Role: RoleViewer, IsActive: true}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := &User{Email: "DUP@example.com", DisplayName: "Second", PasswordHash: "h", Role: RoleViewer, IsActive: true}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Create() duplicate = %v, want ErrEmailExists", err)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() missing = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByID(ctx, "usr-missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() missing = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)

	user.DisplayName = "Renamed"
	user.Role = RoleAdmin
	user.IsActive = false
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.DisplayName != "Renamed" || got.Role != RoleAdmin || got.IsActive {
		t.Errorf("Update() not persisted: %+v", got)
	}

	missing := &User{ID: "usr-missing", DisplayName: "x", Role: RoleViewer}
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() missing = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)

	if err := repo.UpdatePassword(ctx, user.ID, "$argon2id$new"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PasswordHash != "$argon2id$new" {
		t.Error("UpdatePassword() should persist the new hash")
	}

	if err := repo.UpdatePassword(ctx, "usr-missing", "h"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePassword() missing = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_RecordLogin(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "editor@example.com", "Sunlit-Harbour7", RoleEditor)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.RecordLogin(ctx, user.ID, at); err != nil {
		t.Fatalf("RecordLogin() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Errorf("LastLoginAt = %v, want %v", got.LastLoginAt, at)
	}
}

func TestUserRepository_DeleteAndCount(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, db, "a@example.com", "Sunlit-Harbour7", RoleViewer)
	b := createTestUser(t, db, "b@example.com", "Sunlit-Harbour7", RoleEditor)

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Delete() twice = %v, want ErrUserNotFound", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 {
		t.Errorf("List() returned %d users, want 1", len(users))
	}
}
