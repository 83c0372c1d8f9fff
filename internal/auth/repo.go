package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-atrium/atrium/internal/roles"
	"github.com/campus-atrium/atrium/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	CreateSessionAudit(ctx context.Context, audit SessionAudit) error
	DeleteSessionAudit(ctx context.Context, tokenDigest string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id, username, email, password_hash, role, is_active, is_superuser, created_at, updated_at`

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
}

// FindByID fetches an account by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*Account, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	var account Account
	var role string
	err := row.Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&role, &account.IsActive, &account.IsSuperuser, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find account: %w", err)
	}
	account.Role = roles.Role(role)
	return &account, nil
}

// UpdatePassword replaces the stored hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateSessionAudit records an issued token for operator visibility.
func (r *PGRepository) CreateSessionAudit(ctx context.Context, audit SessionAudit) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, token_digest, issued_at, ip, ua) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (token_digest) DO NOTHING`,
		audit.ID, audit.UserID, audit.TokenDigest, audit.IssuedAt, audit.IP, audit.UserAgent)
	if err != nil {
		return fmt.Errorf("auth: create session audit: %w", err)
	}
	return nil
}

// DeleteSessionAudit removes the trace of a revoked token.
func (r *PGRepository) DeleteSessionAudit(ctx context.Context, tokenDigest string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_digest = $1`, tokenDigest); err != nil {
		return fmt.Errorf("auth: delete session audit: %w", err)
	}
	return nil
}

// PruneSessionAudits deletes audit rows issued before the cutoff and
// returns how many were removed.
func (r *PGRepository) PruneSessionAudits(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE issued_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("auth: prune session audits: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
