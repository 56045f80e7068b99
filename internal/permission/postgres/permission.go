package postgres

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PermissionsForRole returns the names of every permission granted to roleID.
func (r *Repository) PermissionsForRole(ctx context.Context, roleID int64) ([]string, error) {
	query := `SELECT p.name
	          FROM permissions p
	          JOIN role_permissions rp ON rp.permission_id = p.id
	          WHERE rp.role_id = ?
	          ORDER BY p.name`

	rows, err := r.db.WithContext(ctx).Raw(query, roleID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	return permissions, rows.Err()
}
