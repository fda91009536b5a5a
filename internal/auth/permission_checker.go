package auth

import "context"

type PermissionChecker interface {
	CanManageProfiles(userPermissions []string) bool
	CanManageGrants(userPermissions []string) bool
	CanManageAssignments(userPermissions []string) bool
	CanReadAccess(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission, PermAdmin}), nil
}

func (c *DefaultPermissionChecker) CanManageProfilesCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanManageProfiles(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageGrantsCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanManageGrants(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageAssignmentsCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanManageAssignments(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanReadAccessCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanReadAccess(userPermissions), nil
}

func (c *DefaultPermissionChecker) IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsAdmin(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageProfiles(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageProfiles, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageGrants(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageGrants, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageAssignments(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageAssignments, PermAdmin})
}

// CanReadAccess gates the resolver endpoints. Anyone on the management plane
// may inspect access, not only admins.
func (c *DefaultPermissionChecker) CanReadAccess(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{
		PermReadAccess, PermManageProfiles, PermManageGrants, PermManageAssignments, PermAdmin,
	})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}
