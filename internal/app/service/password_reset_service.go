package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

const (
	// ResetTokenExpiry is the duration for which a reset token is valid
	ResetTokenExpiry = 1 * time.Hour
	// ResetTokenLength is the byte length of the reset token
	ResetTokenLength = 32
)

type PasswordResetService interface {
	// RequestReset never reveals whether the email exists.
	RequestReset(ctx context.Context, email string) error
	ValidateToken(token string) error
	ResetPassword(token, newPassword, confirmPassword string) error
	PurgeExpired(now time.Time) (int64, error)
}

type passwordResetService struct {
	resetRepo    repository.PasswordResetRepository
	userRepo     repository.UserRepository
	emailService EmailService
	publicURL    string
}

func NewPasswordResetService(
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	emailService EmailService,
	publicURL string,
) PasswordResetService {
	return &passwordResetService{
		resetRepo:    resetRepo,
		userRepo:     userRepo,
		emailService: emailService,
		publicURL:    strings.TrimRight(publicURL, "/"),
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}

	// only the newest link works
	if err := s.resetRepo.InvalidateForUser(user.ID); err != nil {
		return err
	}

	token, err := util.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		logger.Error("Failed to generate reset token", err)
		return err
	}

	reset := &model.PasswordReset{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: time.Now().Add(ResetTokenExpiry),
	}
	if err := s.resetRepo.Create(reset); err != nil {
		return err
	}

	name := ""
	if user.Profile != nil {
		name = user.Profile.FullName
	}
	link := s.publicURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.emailService.SendPasswordReset(ctx, user.Email, name, link); err != nil {
		return err
	}

	logger.Info("Password reset email sent", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": reset.ExpiresAt,
	})
	return nil
}

func (s *passwordResetService) ValidateToken(token string) error {
	_, err := s.usableReset(token)
	return err
}

func (s *passwordResetService) ResetPassword(token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	if err := util.CheckPasswordPolicy(newPassword); err != nil {
		return err
	}

	reset, err := s.usableReset(token)
	if err != nil {
		return err
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		logger.Error("Failed to hash new password", err, map[string]interface{}{
			"user_id": reset.UserID,
		})
		return err
	}

	if err := s.resetRepo.Consume(reset, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		logger.Error("Failed to reset password", err, map[string]interface{}{
			"user_id": reset.UserID,
		})
		return err
	}

	logger.Info("Password reset completed", map[string]interface{}{
		"user_id": reset.UserID,
	})
	return nil
}

func (s *passwordResetService) PurgeExpired(now time.Time) (int64, error) {
	return s.resetRepo.DeleteExpired(now)
}

func (s *passwordResetService) usableReset(token string) (*model.PasswordReset, error) {
	if token == "" {
		return nil, ErrInvalidResetToken
	}
	reset, err := s.resetRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}
	if !reset.IsUsable(time.Now()) {
		return nil, ErrInvalidResetToken
	}
	return reset, nil
}
