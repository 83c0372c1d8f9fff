package shared

import "github.com/campus-atrium/atrium/internal/roles"

// Identity is the snapshot of an authenticated principal attached to a
// request after token resolution. It is read-only for consumers; the
// directory owns the underlying record.
type Identity struct {
	ID          int64
	Username    string
	Email       string
	Role        roles.Role
	IsActive    bool
	IsSuperuser bool
}
