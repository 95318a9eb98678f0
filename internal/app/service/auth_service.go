package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// TokenRevoker blacklists token ids until they expire. pkg/redis.Blacklist satisfies it.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	BusinessName    string
	Phone           string
	Language        string
}

// LogoutInput identifies the session to end. RefreshToken is optional.
type LogoutInput struct {
	UserID        uint
	AccessTokenID string
	AccessExpiry  time.Time
	RefreshToken  string
}

type AuthSettings struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	TrialDays     int
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	// Logout revokes the access token and, when given, the caller's refresh token.
	// Without a revoker it is a no-op.
	Logout(ctx context.Context, session LogoutInput) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	userRepo     repository.UserRepository
	emailService EmailService
	revoker      TokenRevoker
	settings     AuthSettings
}

func NewAuthService(
	userRepo repository.UserRepository,
	emailService EmailService,
	revoker TokenRevoker,
	settings AuthSettings,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		emailService: emailService,
		revoker:      revoker,
		settings:     settings,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := normalizeEmail(input.Email)
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	if input.Password != input.ConfirmPassword {
		return nil, nil, ErrPasswordMismatch
	}
	if err := util.CheckPasswordPolicy(input.Password); err != nil {
		return nil, nil, err
	}

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	language := input.Language
	if language == "" {
		language = "en"
	}
	trialEnd := time.Now().AddDate(0, 0, s.settings.TrialDays)

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         model.RoleOwner,
	}
	profile := &model.UserProfile{
		FullName:     strings.TrimSpace(input.FullName),
		BusinessName: strings.TrimSpace(input.BusinessName),
		Phone:        strings.TrimSpace(input.Phone),
		Language:     language,
	}
	sub := &model.UserSubscription{
		PlanType:     entitlement.PlanFree,
		Status:       entitlement.StatusTrial,
		TrialEndDate: &trialEnd,
	}

	if err := s.userRepo.CreateAccount(user, profile, sub); err != nil {
		logger.Error("Failed to create account", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	// welcome email is best effort
	if s.emailService != nil {
		if err := s.emailService.SendWelcome(ctx, user.Email, profile.FullName, s.settings.TrialDays, trialEnd); err != nil {
			logger.Warn("Welcome email not delivered", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":   user.ID,
		"email":     email,
		"trial_end": trialEnd,
	})

	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLoginAt = &now
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
		"role":    user.Role,
	})

	return user, tokens, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.settings.JWTSecret)
	if err != nil || claims.TokenType != util.TokenTypeRefresh {
		logger.Warn("Refresh rejected", map[string]interface{}{
			"reason": "invalid or non-refresh token",
		})
		return nil, ErrInvalidRefreshToken
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			logger.Warn("Refresh rejected", map[string]interface{}{
				"reason":  "revoked token",
				"user_id": claims.UserID,
			})
			return nil, ErrInvalidRefreshToken
		}
	}

	// the account may have been deleted since the token was issued
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, session LogoutInput) error {
	var refresh *util.Claims
	if session.RefreshToken != "" {
		claims, err := util.ValidateToken(session.RefreshToken, s.settings.JWTSecret)
		if err != nil || claims.TokenType != util.TokenTypeRefresh || claims.UserID != session.UserID {
			return ErrInvalidRefreshToken
		}
		refresh = claims
	}

	if s.revoker == nil {
		return nil
	}
	if session.AccessTokenID != "" {
		if err := s.revoke(ctx, session.AccessTokenID, session.AccessExpiry); err != nil {
			return err
		}
	}
	if refresh != nil {
		return s.revoke(ctx, refresh.ID, refresh.ExpiresAt.Time)
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if err := s.revoker.Revoke(ctx, tokenID, ttl); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"token_id": tokenID,
		})
		return err
	}

	logger.Info("Token revoked", map[string]interface{}{
		"token_id": tokenID,
		"ttl":      ttl.String(),
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	logger.Debug("Fetching user by ID", map[string]interface{}{
		"user_id": id,
	})

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}

	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.settings.JWTSecret,
		s.settings.AccessExpiry,
		s.settings.RefreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
