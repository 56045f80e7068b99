package rbac

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/visitor-management/internal/core/events"
	"github.com/frahmantamala/visitor-management/internal/permission"
)

var ErrRoleNotFound = errors.New("role not found")

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UnknownIDsError reports identifiers in a grant request that match no row.
type UnknownIDsError struct {
	Field string
	IDs   []int64
}

func (e *UnknownIDsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s: unknown ids [%s]", e.Field, strings.Join(ids, ", "))
}

// RepositoryAPI persists grants. Replace* methods swap the complete grant set
// of a role in one transaction and fail with ErrRoleNotFound or
// *UnknownIDsError without changing anything.
type RepositoryAPI interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	RolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	ReplaceRoleMenuItems(ctx context.Context, roleID int64, menuItemIDs []int64) error
}

type PermissionResolver interface {
	Resolve(ctx context.Context, roleID int64) (permission.Set, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, roleID int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ServiceAPI interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	RolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	GrantRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) (*PermissionGrant, error)
	GrantRoleMenuItems(ctx context.Context, roleID int64, menuItemIDs []int64) (*MenuItemGrant, error)
}
