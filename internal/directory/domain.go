// Package directory orchestrates the authorization engine and the
// persistence layer to answer who may list, deactivate and re-role whom.
package directory

import (
	"time"

	"github.com/campus-atrium/atrium/internal/roles"
)

// User is a directory record. Inactive users are rejected at
// authentication but remain listable rows.
type User struct {
	ID          int64
	Username    string
	Email       string
	Role        roles.Role
	IsActive    bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
