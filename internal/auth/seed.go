package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for the seed password.
const seedPasswordBytes = 16

// seedEmail is the initial superadmin login on a fresh install.
const seedEmail = "admin@localhost"

// SeedSuperAdmin creates the initial superadmin account on first boot if no
// users exist. The generated password is logged — it must be changed
// immediately. Returns the generated password (empty string if seeding was
// skipped).
func SeedSuperAdmin(ctx context.Context, userRepo UserRepository, logger *slog.Logger) (string, error) {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping superadmin seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &User{
		Email:        seedEmail,
		DisplayName:  "Site Administrator",
		PasswordHash: hash,
		Role:         RoleSuperAdmin,
		IsActive:     true,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed superadmin: %w", err)
	}

	logger.Warn("seed superadmin account created",
		"email", seedEmail,
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
