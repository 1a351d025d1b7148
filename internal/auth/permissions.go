package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermContentRead   Permission = "content:read"
	PermContentCreate Permission = "content:create"
	PermContentUpdate Permission = "content:update"
	PermContentDelete Permission = "content:delete"
	PermMediaUpload   Permission = "media:upload"
	PermMediaUpdate   Permission = "media:update"
	PermMediaDelete   Permission = "media:delete"
	PermUserManage    Permission = "user:manage"
	PermUserManageAll Permission = "user:manage:all"
	PermAuditRead     Permission = "audit:read"
	PermSystemAdmin   Permission = "system:admin"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
// Ownership restrictions on editor content are handled separately
// via CanAccessResource.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermContentRead,
	},
	RoleEditor: {
		PermContentRead,
		PermContentCreate,
		PermContentUpdate,
		PermMediaUpload,
		PermMediaUpdate,
	},
	RoleAdmin: {
		PermContentRead,
		PermContentCreate,
		PermContentUpdate,
		PermContentDelete,
		PermMediaUpload,
		PermMediaUpdate,
		PermMediaDelete,
		PermUserManage,
		PermAuditRead,
	},
	RoleSuperAdmin: {
		PermContentRead,
		PermContentCreate,
		PermContentUpdate,
		PermContentDelete,
		PermMediaUpload,
		PermMediaUpdate,
		PermMediaDelete,
		PermUserManage,
		PermUserManageAll,
		PermAuditRead,
		PermSystemAdmin,
	},
}

// HasPermission returns true if the given role has the specified permission.
// Unknown roles and unknown permission keys fail closed (false).
func HasPermission(role Role, perm Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}

// HasRoleLevel returns true if role is at least as privileged as required.
// The check is reflexive and monotonic over the role hierarchy; an unknown
// role (rank 0) never satisfies any requirement.
func HasRoleLevel(role, required Role) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	req, ok := roleRank[required]
	if !ok {
		return false
	}
	return r >= req
}

// CanAccessResource decides whether a role may exercise a permission against
// a specific resource. SuperAdmin always may. Everyone else needs the
// permission itself; if the resource has an owner, they additionally need to
// be that owner or hold admin rank.
func CanAccessResource(role Role, perm Permission, resourceOwnerID, userID string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	if !HasPermission(role, perm) {
		return false
	}
	if resourceOwnerID == "" {
		return true
	}
	return resourceOwnerID == userID || HasRoleLevel(role, RoleAdmin)
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
