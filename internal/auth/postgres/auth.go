package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/visitor-management/internal/auth"
	userDatamodel "github.com/frahmantamala/visitor-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// FindByUsername returns the stored credential, active or not.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}

	return &auth.Credential{
		Principal: auth.Principal{
			ID:       u.ID,
			Username: u.Username,
			RoleID:   u.RoleID,
		},
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}, nil
}
