package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/visitor-management/internal/user"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (p *Repository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := p.db.Rebind(`
SELECT u.id, u.username, u.name, u.role_id, COALESCE(r.name, '') AS role_name, u.is_active, u.created_at
FROM users u
LEFT JOIN roles r ON r.id = u.role_id
WHERE u.id = ?
`)

	var u user.User
	if err := p.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}
