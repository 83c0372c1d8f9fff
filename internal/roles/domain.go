// Package roles defines the four directory roles and the authorization
// rules governing what each role may see and do to the others. All
// decision functions are pure: they hold no state, never error, and
// treat any unknown role as deny-all.
package roles

// Role is one of the four fixed directory roles.
type Role string

// The complete role enumeration. The privilege order is
// admin > faculty > staff > student, but the permission tables below
// are intentionally asymmetric and must not be derived from it.
const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
)

// Default is the role assigned to self-registered accounts.
const Default = RoleStudent

// Valid reports whether r is one of the four accepted roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStaff, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Parse returns the Role for value, or false when the value is not one
// of the four accepted roles. An invalid value is an input error for
// the caller, never a permission decision.
func Parse(value string) (Role, bool) {
	r := Role(value)
	return r, r.Valid()
}
