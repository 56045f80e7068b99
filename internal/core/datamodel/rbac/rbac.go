package rbac

import "time"

type Role struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RolePermission is the role<->permission junction row.
type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:idx_role_permissions_pair"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permissions_pair"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type MenuItem struct {
	ID           int64   `gorm:"primaryKey"`
	Label        string  `gorm:"column:label;not null"`
	Link         *string `gorm:"column:link"`
	Icon         string  `gorm:"column:icon"`
	Permission   string  `gorm:"column:permission"`
	DisplayOrder int     `gorm:"column:display_order;not null;default:0"`
	ParentID     *int64  `gorm:"column:parent_id;index"`
	IsSubmenu    bool    `gorm:"column:is_submenu;not null;default:false"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

// MenuItemRole is the menu item<->role junction row.
type MenuItemRole struct {
	ID         int64     `gorm:"primaryKey"`
	MenuItemID int64     `gorm:"column:menu_item_id;not null;uniqueIndex:idx_menu_item_roles_pair"`
	RoleID     int64     `gorm:"column:role_id;not null;uniqueIndex:idx_menu_item_roles_pair"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (MenuItemRole) TableName() string {
	return "menu_item_roles"
}
