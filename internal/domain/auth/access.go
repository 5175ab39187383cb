package auth

import "slices"

// IsSuperuser reports whether the identity holds the superuser role.
// This is the single place the role-id sentinel is consulted.
func IsSuperuser(id *Identity) bool {
	if id == nil {
		return false
	}
	return slices.Contains(id.RoleIDs, SuperuserRoleID)
}

// HasRole reports whether the identity holds at least one of the requested
// roles. A nil identity always fails; an empty requested set passes for any
// authenticated identity.
func HasRole(id *Identity, roleIDs ...int64) bool {
	if id == nil {
		return false
	}
	if len(roleIDs) == 0 {
		return true
	}
	for _, want := range roleIDs {
		if slices.Contains(id.RoleIDs, want) {
			return true
		}
	}
	return false
}

// HasPermission reports whether the identity holds at least one of the
// requested permission codes. A nil identity always fails. The superuser role
// passes regardless of the requested permissions, even for codes absent from
// the identity's explicit permission list. An empty requested set passes for
// any authenticated identity.
func HasPermission(id *Identity, perms ...string) bool {
	if id == nil {
		return false
	}
	if IsSuperuser(id) {
		return true
	}
	if len(perms) == 0 {
		return true
	}
	for _, want := range perms {
		if slices.Contains(id.Permissions, want) {
			return true
		}
	}
	return false
}
