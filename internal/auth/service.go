package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/campus-atrium/atrium/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. A missing account,
// a wrong password and a disabled account all return
// shared.ErrInvalidCredentials so callers cannot probe which failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, current, next, confirm string) error {
	if next != confirm {
		return shared.BadRequestf("Passwords do not match")
	}
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)); err != nil {
		return shared.BadRequestf("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, accountID, string(hash))
}

// RecordSession persists the audit trace of an issued token.
func (s *Service) RecordSession(ctx context.Context, audit SessionAudit) error {
	return s.repo.CreateSessionAudit(ctx, audit)
}

// ForgetSession removes the audit trace of a revoked token.
func (s *Service) ForgetSession(ctx context.Context, token string) error {
	return s.repo.DeleteSessionAudit(ctx, TokenDigest(token))
}

// TokenDigest returns the hex SHA-256 of a raw token. Only digests are
// stored server-side.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
