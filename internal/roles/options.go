package roles

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Option is a role choice presented to clients, a machine value paired
// with a display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var titleCaser = cases.Title(language.English)

// assignable maps an actor role to the roles it may hand out, in the
// order clients display them. Like visibility, this is a fixed table.
var assignable = map[Role][]Role{
	RoleAdmin:   {RoleAdmin, RoleStudent, RoleFaculty, RoleStaff},
	RoleFaculty: {RoleFaculty, RoleStaff, RoleStudent},
	RoleStaff:   {RoleFaculty},
	RoleStudent: {RoleFaculty, RoleStudent},
}

// filterLabels holds the plural display names used by the list-filter
// dropdown. Faculty and Staff read the same in singular and plural.
var filterLabels = map[Role]string{
	RoleAdmin:   "Admins",
	RoleFaculty: "Faculty",
	RoleStaff:   "Staff",
	RoleStudent: "Students",
}

// AssignableRoles returns the role options actor may grant to others.
// Unknown actor roles yield an empty set.
func AssignableRoles(actor Role) []Option {
	rs, ok := assignable[actor]
	if !ok {
		return []Option{}
	}
	opts := make([]Option, 0, len(rs))
	for _, r := range rs {
		opts = append(opts, Option{Value: r.String(), Label: titleCaser.String(r.String())})
	}
	return opts
}

// FilterRoles returns the options usable to filter a user listing: a
// synthetic "All Roles" entry followed by the actor's visible roles.
func FilterRoles(actor Role) []Option {
	opts := []Option{{Value: "", Label: "All Roles"}}
	for _, r := range VisibleRoles(actor) {
		opts = append(opts, Option{Value: r.String(), Label: filterLabels[r]})
	}
	return opts
}
