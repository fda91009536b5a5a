package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Admin-plane permission names. These gate the management API itself and are
// unrelated to folder permission levels, which govern document access.
const (
	PermAdmin             = "admin"
	PermManageProfiles    = "profiles:manage"
	PermManageGrants      = "grants:manage"
	PermManageAssignments = "assignments:manage"
	PermReadAccess        = "access:read"
)

type ctxKey string

const ContextUserKey ctxKey = "auth_user"

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Permissions    []string  `json:"permissions,omitempty"`
}

type UserInfo struct {
	ID             uuid.UUID `db:"id"`
	Email          string    `db:"email"`
	Name           string    `db:"name"`
	OrganizationID uuid.UUID `db:"organization_id"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Permissions    []string  `db:"-"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermAdmin)
}

func (u *User) CanManageProfiles() bool {
	return u.HasAnyPermission([]string{PermManageProfiles, PermAdmin})
}

func (u *User) CanManageGrants() bool {
	return u.HasAnyPermission([]string{PermManageGrants, PermAdmin})
}

func (u *User) CanManageAssignments() bool {
	return u.HasAnyPermission([]string{PermManageAssignments, PermAdmin})
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(ContextUserKey).(*User)
	return user, ok
}

func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}
