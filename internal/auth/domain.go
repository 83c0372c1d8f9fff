package auth

import (
	"time"

	"github.com/campus-atrium/atrium/internal/roles"
)

// Account is a credential-store record: a directory row plus the
// password hash the directory layer never sees.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         roles.Role
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionAudit is the durable trace of an issued token, kept for
// operator visibility. The token itself never touches the database;
// only its digest does.
type SessionAudit struct {
	ID          string
	UserID      int64
	TokenDigest string
	IssuedAt    time.Time
	IP          string
	UserAgent   string
}
