package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	rbacDatamodel "github.com/frahmantamala/visitor-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/visitor-management/internal/rbac"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	var rows []rbacDatamodel.Role
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	roles := make([]rbac.Role, len(rows))
	for i, row := range rows {
		roles[i] = rbac.Role{ID: row.ID, Name: row.Name, Description: row.Description}
	}
	return roles, nil
}

func (r *Repository) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	var rows []rbacDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPermissions(rows), nil
}

func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	db := r.db.WithContext(ctx)
	if err := lockRole(db, roleID, false); err != nil {
		return nil, err
	}

	var rows []rbacDatamodel.Permission
	err := db.
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", roleID).
		Order("permissions.name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toPermissions(rows), nil
}

// ReplaceRolePermissions makes permissionIDs the complete grant set of roleID.
func (r *Repository) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRole(tx, roleID, true); err != nil {
			return err
		}
		if err := requireIDs(tx, &rbacDatamodel.Permission{}, "permission_ids", permissionIDs); err != nil {
			return err
		}

		del := tx.Where("role_id = ?", roleID)
		if len(permissionIDs) > 0 {
			del = del.Where("permission_id NOT IN ?", permissionIDs)
		}
		if err := del.Delete(&rbacDatamodel.RolePermission{}).Error; err != nil {
			return err
		}

		if len(permissionIDs) == 0 {
			return nil
		}
		rows := make([]rbacDatamodel.RolePermission, len(permissionIDs))
		for i, id := range permissionIDs {
			rows[i] = rbacDatamodel.RolePermission{RoleID: roleID, PermissionID: id}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// ReplaceRoleMenuItems makes menuItemIDs the complete menu of roleID.
func (r *Repository) ReplaceRoleMenuItems(ctx context.Context, roleID int64, menuItemIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRole(tx, roleID, true); err != nil {
			return err
		}
		if err := requireIDs(tx, &rbacDatamodel.MenuItem{}, "menu_item_ids", menuItemIDs); err != nil {
			return err
		}

		del := tx.Where("role_id = ?", roleID)
		if len(menuItemIDs) > 0 {
			del = del.Where("menu_item_id NOT IN ?", menuItemIDs)
		}
		if err := del.Delete(&rbacDatamodel.MenuItemRole{}).Error; err != nil {
			return err
		}

		if len(menuItemIDs) == 0 {
			return nil
		}
		rows := make([]rbacDatamodel.MenuItemRole, len(menuItemIDs))
		for i, id := range menuItemIDs {
			rows[i] = rbacDatamodel.MenuItemRole{RoleID: roleID, MenuItemID: id}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// lockRole fails with rbac.ErrRoleNotFound for an unknown role. With forUpdate
// the row stays locked until the transaction ends, which serialises writers
// of the same role.
func lockRole(db *gorm.DB, roleID int64, forUpdate bool) error {
	q := db
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var role rbacDatamodel.Role
	if err := q.Select("id").Where("id = ?", roleID).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rbac.ErrRoleNotFound
		}
		return err
	}
	return nil
}

// requireIDs fails with *rbac.UnknownIDsError when any id has no row in
// model's table.
func requireIDs(tx *gorm.DB, model interface{}, field string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	var found []int64
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	present := make(map[int64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &rbac.UnknownIDsError{Field: field, IDs: missing}
}

func toPermissions(rows []rbacDatamodel.Permission) []rbac.Permission {
	perms := make([]rbac.Permission, len(rows))
	for i, row := range rows {
		perms[i] = rbac.Permission{ID: row.ID, Name: row.Name, Description: row.Description}
	}
	return perms
}
