package rbac

import (
	"github.com/frahmantamala/visitor-management/internal/core/common/validation"
)

// maxGrantIDs caps a single grant request.
const maxGrantIDs = 1000

type GrantPermissionsDTO struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

type GrantMenuItemsDTO struct {
	MenuItemIDs []int64 `json:"menu_item_ids"`
}

// PermissionGrant is the permission set a role holds after a replace.
type PermissionGrant struct {
	RoleID        int64   `json:"role_id"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// MenuItemGrant is the menu item set a role holds after a replace.
type MenuItemGrant struct {
	RoleID      int64   `json:"role_id"`
	MenuItemIDs []int64 `json:"menu_item_ids"`
}

// validateGrant accepts an empty list, which revokes everything, but not a
// missing one.
func validateGrant(roleID int64, field string, ids []int64) error {
	v := validation.NewValidator()
	v.Field("role_id", roleID).PositiveID()
	v.Field(field, ids).Required().PositiveIDs().MaxItems(maxGrantIDs)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// normalizeIDs drops duplicates and keeps first-seen order. The result is
// never nil.
func normalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
