package repository

import (
	"errors"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	// CreateAccount inserts the user, profile and subscription in one transaction.
	CreateAccount(user *model.User, profile *model.UserProfile, sub *model.UserSubscription) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	UpdatePassword(userID uint, passwordHash string) error
	UpdateProfile(profile *model.UserProfile) error
	TouchLastLogin(userID uint, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateAccount(user *model.User, profile *model.UserProfile, sub *model.UserSubscription) error {
	logger.Debug("Creating account in database", map[string]interface{}{
		"email": user.Email,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		sub.UserID = user.ID
		return tx.Create(sub).Error
	})
	if err != nil {
		logger.Error("Failed to create account in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	user.Profile = profile
	user.Subscription = sub
	logger.Debug("Account created in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	err := r.db.Preload("Profile").Preload("Subscription").First(&user, id).Error
	if err != nil {
		logLookupError("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	err := r.db.Preload("Profile").Preload("Subscription").Where("email = ?", email).First(&user).Error
	if err != nil {
		logLookupError("Failed to find user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(userID uint, passwordHash string) error {
	logger.Debug("Updating user password in database", map[string]interface{}{
		"user_id": userID,
	})

	res := r.db.Model(&model.User{}).Where("id = ?", userID).Update("password_hash", passwordHash)
	if res.Error != nil {
		logger.Error("Failed to update user password in database", res.Error, map[string]interface{}{
			"user_id": userID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) UpdateProfile(profile *model.UserProfile) error {
	logger.Debug("Updating user profile in database", map[string]interface{}{
		"user_id": profile.UserID,
	})

	if err := r.db.Save(profile).Error; err != nil {
		logger.Error("Failed to update user profile in database", err, map[string]interface{}{
			"user_id": profile.UserID,
		})
		return err
	}
	return nil
}

func (r *userRepository) TouchLastLogin(userID uint, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
}

// logLookupError keeps not-found at debug level; it is an expected outcome for lookups.
func logLookupError(msg string, err error, fields map[string]interface{}) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Debug(msg+": not found", fields)
		return
	}
	logger.Error(msg, err, fields)
}
