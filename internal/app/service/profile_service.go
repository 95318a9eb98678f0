package service

import (
	"errors"
	"strings"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/util"
	"gorm.io/gorm"
)

var ErrIncorrectPassword = errors.New("current password is incorrect")

// ProfileUpdate carries optional fields; nil leaves the stored value.
type ProfileUpdate struct {
	FullName     *string
	BusinessName *string
	Phone        *string
	Language     *string
}

type ProfileService interface {
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error)
	ChangePassword(userID uint, currentPassword, newPassword, confirmPassword string) error
}

type profileService struct {
	userRepo  repository.UserRepository
	resetRepo repository.PasswordResetRepository
}

func NewProfileService(userRepo repository.UserRepository, resetRepo repository.PasswordResetRepository) ProfileService {
	return &profileService{userRepo: userRepo, resetRepo: resetRepo}
}

func (s *profileService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *profileService) UpdateProfile(userID uint, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profile := user.Profile
	if profile == nil {
		profile = &model.UserProfile{UserID: user.ID, Language: "en"}
	}
	if update.FullName != nil {
		profile.FullName = strings.TrimSpace(*update.FullName)
	}
	if update.BusinessName != nil {
		profile.BusinessName = strings.TrimSpace(*update.BusinessName)
	}
	if update.Phone != nil {
		profile.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Language != nil {
		profile.Language = *update.Language
	}

	if err := s.userRepo.UpdateProfile(profile); err != nil {
		return nil, err
	}
	user.Profile = profile

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return user, nil
}

func (s *profileService) ChangePassword(userID uint, currentPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := util.CheckPasswordPolicy(newPassword); err != nil {
		return err
	}

	user, err := s.GetProfile(userID)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(user.PasswordHash, currentPassword) {
		logger.Warn("Password change rejected: wrong current password", map[string]interface{}{
			"user_id": userID,
		})
		return ErrIncorrectPassword
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return err
	}

	// outstanding reset links would otherwise still override the new password
	if err := s.resetRepo.InvalidateForUser(userID); err != nil {
		logger.Warn("Failed to invalidate reset tokens after password change", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	logger.Info("Password changed", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
