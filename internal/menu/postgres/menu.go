package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/visitor-management/internal/menu"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type itemRow struct {
	ID           int64   `gorm:"column:id"`
	Label        string  `gorm:"column:label"`
	Link         *string `gorm:"column:link"`
	Icon         string  `gorm:"column:icon"`
	Permission   string  `gorm:"column:permission"`
	DisplayOrder int     `gorm:"column:display_order"`
	ParentID     *int64  `gorm:"column:parent_id"`
	IsSubmenu    bool    `gorm:"column:is_submenu"`
	Selected     bool    `gorm:"column:selected"`
}

// ItemsForRole returns every menu node left-joined with roleID's menu grants.
func (r *Repository) ItemsForRole(ctx context.Context, roleID int64) ([]menu.Item, error) {
	query := `SELECT mi.id, mi.label, mi.link, COALESCE(mi.icon, '') AS icon,
	                 COALESCE(mi.permission, '') AS permission, mi.display_order,
	                 mi.parent_id, mi.is_submenu, (mr.id IS NOT NULL) AS selected
	          FROM menu_items mi
	          LEFT JOIN menu_item_roles mr ON mr.menu_item_id = mi.id AND mr.role_id = ?
	          ORDER BY mi.display_order, mi.id`

	var rows []itemRow
	if err := r.db.WithContext(ctx).Raw(query, roleID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]menu.Item, len(rows))
	for i, row := range rows {
		items[i] = menu.Item(row)
	}
	return items, nil
}
