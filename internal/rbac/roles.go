package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
//
// owner/manager run campaigns; rep handles individual calls; analyst reads
// reporting. super_admin is internal support.
const (
	RoleOwner      = "owner"
	RoleManager    = "manager"
	RoleRep        = "rep"
	RoleAnalyst    = "analyst"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }
