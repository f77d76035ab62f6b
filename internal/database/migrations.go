package database

import (
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Application{},
		&models.Holder{},
		&models.LoginToken{},
		&models.AuditLog{},
	)
}
