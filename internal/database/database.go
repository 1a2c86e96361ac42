package database

import (
	"fmt"

	"github.com/Aashish788/clouddrive/internal/config"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedSuperAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Folder{},
		&models.File{},
		&models.FileShare{},
		&models.FolderShare{},
	)
}

func seedSuperAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "System Admin",
		Email:        "admin@clouddrive.local",
		PasswordHash: hash,
		Role:         models.UserRoleSuperAdmin,
	}

	return db.Create(&admin).Error
}
