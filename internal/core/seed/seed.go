// Package seed loads the baseline roles, permission catalogue, menu tree and
// accounts. Every step is idempotent so the seeder can be rerun.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/frahmantamala/visitor-management/internal/auth"
	rbacDatamodel "github.com/frahmantamala/visitor-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/visitor-management/internal/core/datamodel/user"
	"github.com/frahmantamala/visitor-management/internal/permission"
)

const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
)

// Granter writes full-replace grants; the rbac repository satisfies it.
type Granter interface {
	ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	ReplaceRoleMenuItems(ctx context.Context, roleID int64, menuItemIDs []int64) error
}

type Options struct {
	Password   string
	BCryptCost int
	// Clear wipes grants, accounts, menus, permissions and roles first.
	Clear bool
}

// Result maps seeded names to their ids.
type Result struct {
	Roles       map[string]int64
	Permissions map[string]int64
	MenuItems   map[string]int64
	Users       map[string]int64
}

type menuSeed struct {
	Label      string
	Link       string
	Icon       string
	Permission string
	Children   []menuSeed
}

var menuTree = []menuSeed{
	{Label: "Dashboard", Link: "/dashboard", Icon: "home"},
	{Label: "Visitors", Icon: "users", Permission: "view:visitors", Children: []menuSeed{
		{Label: "Check In", Link: "/visitors/check-in", Icon: "log-in", Permission: "create:visitors"},
		{Label: "Visitor Log", Link: "/visitors", Icon: "list", Permission: "view:visitors"},
	}},
	{Label: "Appointments", Link: "/appointments", Icon: "calendar", Permission: "view:appointments"},
	{Label: "Attendance", Link: "/attendance", Icon: "clock", Permission: "view:attendance"},
	{Label: "Administration", Icon: "settings", Children: []menuSeed{
		{Label: "Users", Link: "/admin/users", Icon: "user", Permission: "view:users"},
		{Label: "Roles", Link: "/admin/roles", Icon: "shield", Permission: permission.ViewRoles},
		{Label: "Departments", Link: "/admin/departments", Icon: "briefcase", Permission: "view:departments"},
		{Label: "Designations", Link: "/admin/designations", Icon: "tag", Permission: "view:designations"},
	}},
}

var receptionistPermissions = []string{
	"view:visitors", "create:visitors", "update:visitors",
	"view:appointments", "create:appointments",
	"view:attendance",
}

var receptionistMenus = []string{"Dashboard", "Visitors", "Check In", "Visitor Log", "Appointments", "Attendance"}

func Run(ctx context.Context, db *gorm.DB, grants Granter, opts Options, logger *slog.Logger) (*Result, error) {
	if opts.Password == "" {
		return nil, fmt.Errorf("seed: password is required")
	}

	db = db.WithContext(ctx)
	if opts.Clear {
		if err := clearAll(db); err != nil {
			return nil, err
		}
		logger.Info("cleared existing data")
	}

	res := &Result{
		Roles:       make(map[string]int64),
		Permissions: make(map[string]int64),
		MenuItems:   make(map[string]int64),
		Users:       make(map[string]int64),
	}

	for _, name := range []string{RoleAdmin, RoleReceptionist} {
		role := rbacDatamodel.Role{Name: name}
		if err := db.Where(rbacDatamodel.Role{Name: name}).
			Attrs(rbacDatamodel.Role{Description: name + " role"}).
			FirstOrCreate(&role).Error; err != nil {
			return nil, fmt.Errorf("seed role %s: %w", name, err)
		}
		res.Roles[name] = role.ID
	}

	for _, name := range permission.Catalog() {
		perm := rbacDatamodel.Permission{Name: name}
		if err := db.Where(rbacDatamodel.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
			return nil, fmt.Errorf("seed permission %s: %w", name, err)
		}
		res.Permissions[name] = perm.ID
	}

	for i, m := range menuTree {
		if err := seedMenu(db, m, nil, i, res.MenuItems); err != nil {
			return nil, err
		}
	}

	accounts := []struct {
		Username string
		Name     string
		Role     string
	}{
		{"admin", "Administrator", RoleAdmin},
		{"receptionist", "Front Desk", RoleReceptionist},
	}
	for _, a := range accounts {
		hash, err := auth.HashPassword(opts.Password, opts.BCryptCost)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", a.Username, err)
		}
		u := userDatamodel.User{Username: a.Username}
		if err := db.Where(userDatamodel.User{Username: a.Username}).
			Attrs(userDatamodel.User{Name: a.Name, PasswordHash: hash, RoleID: res.Roles[a.Role], IsActive: true}).
			FirstOrCreate(&u).Error; err != nil {
			return nil, fmt.Errorf("seed user %s: %w", a.Username, err)
		}
		res.Users[a.Username] = u.ID
	}

	adminPerms := make([]int64, 0, len(res.Permissions))
	for _, id := range res.Permissions {
		adminPerms = append(adminPerms, id)
	}
	adminMenus := make([]int64, 0, len(res.MenuItems))
	for _, id := range res.MenuItems {
		adminMenus = append(adminMenus, id)
	}

	if err := grants.ReplaceRolePermissions(ctx, res.Roles[RoleAdmin], adminPerms); err != nil {
		return nil, fmt.Errorf("seed admin permissions: %w", err)
	}
	if err := grants.ReplaceRoleMenuItems(ctx, res.Roles[RoleAdmin], adminMenus); err != nil {
		return nil, fmt.Errorf("seed admin menus: %w", err)
	}
	if err := grants.ReplaceRolePermissions(ctx, res.Roles[RoleReceptionist], lookup(res.Permissions, receptionistPermissions)); err != nil {
		return nil, fmt.Errorf("seed receptionist permissions: %w", err)
	}
	if err := grants.ReplaceRoleMenuItems(ctx, res.Roles[RoleReceptionist], lookup(res.MenuItems, receptionistMenus)); err != nil {
		return nil, fmt.Errorf("seed receptionist menus: %w", err)
	}

	logger.Info("seed complete",
		"roles", len(res.Roles),
		"permissions", len(res.Permissions),
		"menu_items", len(res.MenuItems),
		"users", len(res.Users))
	return res, nil
}

func seedMenu(db *gorm.DB, m menuSeed, parentID *int64, order int, ids map[string]int64) error {
	item := rbacDatamodel.MenuItem{Label: m.Label}
	where := db.Where("label = ?", m.Label)
	if parentID == nil {
		where = where.Where("parent_id IS NULL")
	} else {
		where = where.Where("parent_id = ?", *parentID)
	}

	attrs := rbacDatamodel.MenuItem{
		Icon:         m.Icon,
		Permission:   m.Permission,
		DisplayOrder: order + 1,
		ParentID:     parentID,
		IsSubmenu:    parentID != nil,
	}
	if m.Link != "" {
		link := m.Link
		attrs.Link = &link
	}
	if err := where.Attrs(attrs).FirstOrCreate(&item).Error; err != nil {
		return fmt.Errorf("seed menu %s: %w", m.Label, err)
	}
	ids[m.Label] = item.ID

	for i, child := range m.Children {
		if err := seedMenu(db, child, &item.ID, i, ids); err != nil {
			return err
		}
	}
	return nil
}

func lookup(ids map[string]int64, names []string) []int64 {
	out := make([]int64, 0, len(names))
	for _, name := range names {
		if id, ok := ids[name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func clearAll(db *gorm.DB) error {
	models := []interface{}{
		&rbacDatamodel.RolePermission{},
		&rbacDatamodel.MenuItemRole{},
		&userDatamodel.User{},
		&rbacDatamodel.MenuItem{},
		&rbacDatamodel.Permission{},
		&rbacDatamodel.Role{},
	}
	for _, m := range models {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	return nil
}
