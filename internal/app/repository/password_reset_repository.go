package repository

import (
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

type PasswordResetRepository interface {
	Create(reset *model.PasswordReset) error
	FindByToken(token string) (*model.PasswordReset, error)
	// Consume marks the token used and stores the new password hash atomically.
	Consume(reset *model.PasswordReset, passwordHash string) error
	InvalidateForUser(userID uint) error
	DeleteExpired(before time.Time) (int64, error)
}

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(reset *model.PasswordReset) error {
	logger.Debug("Creating password reset in database", map[string]interface{}{
		"user_id": reset.UserID,
	})

	if err := r.db.Create(reset).Error; err != nil {
		logger.Error("Failed to create password reset in database", err, map[string]interface{}{
			"user_id": reset.UserID,
		})
		return err
	}
	return nil
}

func (r *passwordResetRepository) FindByToken(token string) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	if err := r.db.Where("token = ?", token).First(&reset).Error; err != nil {
		logLookupError("Failed to find password reset by token in database", err, nil)
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) Consume(reset *model.PasswordReset, passwordHash string) error {
	logger.Debug("Consuming password reset in database", map[string]interface{}{
		"id":      reset.ID,
		"user_id": reset.UserID,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		// the used=false guard makes a concurrent second use affect zero rows
		res := tx.Model(&model.PasswordReset{}).
			Where("id = ? AND used = ?", reset.ID, false).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.User{}).Where("id = ?", reset.UserID).Update("password_hash", passwordHash).Error
	})
}

func (r *passwordResetRepository) InvalidateForUser(userID uint) error {
	return r.db.Model(&model.PasswordReset{}).
		Where("user_id = ? AND used = ?", userID, false).
		Update("used", true).Error
}

func (r *passwordResetRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("expires_at < ? OR used = ?", before, true).Delete(&model.PasswordReset{})
	if res.Error != nil {
		logger.Error("Failed to delete expired password resets", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
