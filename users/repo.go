package users

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
)

// IdentityRepo is the identity/role provider the token layer depends on.
// Lookups that find nothing return ErrUserNotFound / ErrRoleNotFound; any
// other error is a storage failure.
type IdentityRepo interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserClaims(ctx context.Context, user *User) ([]Claim, error)
	GetUserRoles(ctx context.Context, user *User) ([]string, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	GetRoleClaims(ctx context.Context, role *Role) ([]Claim, error)

	CreateUser(ctx context.Context, user *User) error
	AddUserToRole(ctx context.Context, user *User, roleName string) error
}
