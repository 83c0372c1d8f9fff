package roles

// visibility maps an actor role to the target roles it may list. The
// table is intentionally asymmetric (staff see faculty, faculty do not
// see staff's own tier symmetrically) and is reproduced as data rather
// than computed from the privilege order.
var visibility = map[Role][]Role{
	RoleAdmin:   {RoleAdmin, RoleFaculty, RoleStaff, RoleStudent},
	RoleFaculty: {RoleFaculty, RoleStaff, RoleStudent},
	RoleStaff:   {RoleFaculty},
	RoleStudent: {RoleFaculty, RoleStudent},
}

// VisibleRoles returns the roles actor may list, in stable display
// order. Unknown actor roles yield an empty set.
func VisibleRoles(actor Role) []Role {
	rs, ok := visibility[actor]
	if !ok {
		return nil
	}
	out := make([]Role, len(rs))
	copy(out, rs)
	return out
}

// CanToggleStatus decides whether actor may flip the target's active
// flag. Rules are evaluated in order, first match wins: no one toggles
// their own status, admins toggle anyone, faculty toggle students only.
func CanToggleStatus(actor Role, actorID, targetID int64, target Role) bool {
	if actorID == targetID {
		return false
	}
	switch actor {
	case RoleAdmin:
		return true
	case RoleFaculty:
		return target == RoleStudent
	}
	return false
}

// CanChangeRole decides whether actor may assign a new role to the
// target. Only admins may, and never to themselves. Validity of the
// requested role value is checked by the caller beforehand.
func CanChangeRole(actor Role, actorID, targetID int64) bool {
	if actor != RoleAdmin {
		return false
	}
	return actorID != targetID
}

// ToggleStatusDenialReason returns the message for the rule that denied
// CanToggleStatus. Only meaningful when CanToggleStatus returned false.
func ToggleStatusDenialReason(actor Role, actorID, targetID int64) string {
	if actorID == targetID {
		return "Cannot change your own status"
	}
	if actor == RoleFaculty {
		return "Faculty can only deactivate students"
	}
	return "Insufficient permissions to change user status"
}

// ChangeRoleDenialReason returns the message for the rule that denied
// CanChangeRole.
func ChangeRoleDenialReason(actor Role, actorID, targetID int64) string {
	if actor != RoleAdmin {
		return "Admin access required"
	}
	return "Cannot change your own role"
}
