package db

import (
	"errors"
	"strings"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.UserProfile{},
		&model.UserSubscription{},
		&model.PasswordReset{},
		&model.Restaurant{},
		&model.MenuCategory{},
		&model.MenuItem{},
		&model.ActivityLog{},
		&model.MenuAnalytics{},
	}
}

// Migrate runs database migrations
func Migrate(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// AdminSeed describes the operator account created on first boot.
type AdminSeed struct {
	Email        string
	PasswordHash string
	FullName     string
}

// SeedAdmin creates the admin account unless a user with that email exists.
func SeedAdmin(conn *gorm.DB, seed AdminSeed) error {
	if seed.Email == "" || seed.PasswordHash == "" {
		logger.Debug("Admin seed not configured, skipping")
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(seed.Email))

	var existing model.User
	err := conn.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Info("Admin account already present, skipping seed", map[string]interface{}{
			"user_id": existing.ID,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		admin := &model.User{Email: email, PasswordHash: seed.PasswordHash, Role: model.RoleAdmin}
		if err := tx.Create(admin).Error; err != nil {
			logger.Error("Failed to seed admin user", err)
			return err
		}
		profile := &model.UserProfile{UserID: admin.ID, FullName: seed.FullName}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		logger.Info("Admin account seeded", map[string]interface{}{
			"user_id": admin.ID,
			"email":   email,
		})
		return nil
	})
}
