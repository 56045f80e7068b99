package user

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/visitor-management/internal/permission"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Name      string    `db:"name"`
	RoleID    int64     `db:"role_id"`
	RoleName  string    `db:"role_name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
}

type PermissionResolver interface {
	Resolve(ctx context.Context, roleID int64) (permission.Set, error)
}

type ServiceAPI interface {
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
}
