// Package testutil opens throwaway databases for repository tests.
package testutil

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	rbacDatamodel "github.com/frahmantamala/visitor-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/visitor-management/internal/core/datamodel/user"
)

// OpenSQLite returns an in-memory SQLite database with every table migrated.
// The pool is pinned to one connection because each :memory: connection is a
// separate database.
func OpenSQLite() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&rbacDatamodel.Role{},
		&rbacDatamodel.Permission{},
		&rbacDatamodel.RolePermission{},
		&rbacDatamodel.MenuItem{},
		&rbacDatamodel.MenuItemRole{},
		&userDatamodel.User{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the connection behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
