// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Organization Roles

// OrgRole represents the authorization level a user holds inside an organization.
type OrgRole string

const (
	// Full control over the organization, its members and invites
	RoleOrgAdmin OrgRole = "ORG_ADMIN"

	// Can manage projects and tasks, and invite members
	RoleManager OrgRole = "MANAGER"

	// Default role for invited users
	RoleMember OrgRole = "MEMBER"
)

// Roles lists every assignable role, highest first.
var Roles = []OrgRole{RoleOrgAdmin, RoleManager, RoleMember}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
//
// Used for UI hints only; the backend enforces the real permission.
func (r OrgRole) AtLeast(target OrgRole) bool {
	return r.level() > 0 && r.level() >= target.level()
}

// Valid reports whether r is one of the known roles.
func (r OrgRole) Valid() bool {
	return r.level() > 0
}

// String implements [fmt.Stringer].
func (r OrgRole) String() string { return string(r) }

// level maps a role to a numeric hierarchy level for comparison logic.
func (r OrgRole) level() int {
	switch r {
	case RoleOrgAdmin:
		return 30
	case RoleManager:
		return 20
	case RoleMember:
		return 10
	default:
		return 0
	}
}
