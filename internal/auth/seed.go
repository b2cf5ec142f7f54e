package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ostiary/ostiary-core/internal/infrastructure/logging"
)

// seedPasswordBytes is the number of random bytes in the seed admin password.
const seedPasswordBytes = 16

// SeedAdmin creates the initial admin account on first boot if no
// operators exist. The generated password is logged once and must be
// changed immediately. Returns the password, or empty if seeding was
// skipped.
func SeedAdmin(ctx context.Context, repo OperatorRepository, log *logging.Logger) (string, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking operator count: %w", err)
	}
	if count > 0 {
		log.Info("operators exist, skipping admin seed")
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

	admin := &Operator{
		Username:     "admin",
		DisplayName:  "System Administrator",
		PasswordHash: hash,
		Role:         RoleAdmin,
		IsActive:     true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	log.Warn("seed admin account created",
		"username", admin.Username,
		"password", password,
		"action_required", "change this password immediately",
	)
	return password, nil
}
