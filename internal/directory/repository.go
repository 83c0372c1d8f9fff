package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-atrium/atrium/internal/roles"
	"github.com/campus-atrium/atrium/internal/shared"
)

// RepositoryPort defines data access methods for directory records.
type RepositoryPort interface {
	ListByRoles(ctx context.Context, visible []roles.Role) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	SetActive(ctx context.Context, id int64, active bool) (*User, error)
	SetRole(ctx context.Context, id int64, role roles.Role) (*User, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
}

// CreateParams carries the fields for a new directory record.
type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         roles.Role
}

const userColumns = `id, username, email, role, is_active, is_superuser, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByRoles returns users whose role is in the visible set, newest
// first. An empty set yields an empty list without touching the database.
func (r *Repository) ListByRoles(ctx context.Context, visible []roles.Role) ([]User, error) {
	if len(visible) == 0 {
		return []User{}, nil
	}
	values := make([]string, len(visible))
	for i, role := range visible {
		values[i] = role.String()
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = ANY($1) ORDER BY created_at DESC`, values)
	if err != nil {
		return nil, fmt.Errorf("directory: list users: %w", err)
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list users: %w", err)
	}
	return users, nil
}

// GetByID fetches one user.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	var u User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("directory: get user: %w", err)
	}
	return &u, nil
}

// SetActive updates only the is_active column and returns the fresh row.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (*User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, active)
	var u User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("directory: set active: %w", err)
	}
	return &u, nil
}

// SetRole updates only the role column and returns the fresh row.
func (r *Repository) SetRole(ctx context.Context, id int64, role roles.Role) (*User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id, role.String())
	var u User
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("directory: set role: %w", err)
	}
	return &u, nil
}

// Create inserts a new active user.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW()) RETURNING `+userColumns,
		params.Username, params.Email, params.PasswordHash, params.Role.String())
	var u User
	if err := scanUser(row, &u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.BadRequestf("A user with that email or username already exists")
		}
		return nil, fmt.Errorf("directory: create user: %w", err)
	}
	return &u, nil
}

// IdentityByID adapts GetByID to the session middleware's loader.
func (r *Repository) IdentityByID(ctx context.Context, id int64) (shared.Identity, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return shared.Identity{}, err
	}
	return ToIdentity(u), nil
}

// ToIdentity converts a directory record into the request-scoped snapshot.
func ToIdentity(u *User) shared.Identity {
	return shared.Identity{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}

func scanUser(row pgx.Row, u *User) error {
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &role, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Role = roles.Role(role)
	return nil
}

var _ RepositoryPort = (*Repository)(nil)
