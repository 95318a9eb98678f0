package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
	"github.com/tablemenu/menu-backend/pkg/util"
)

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
}

func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService) *AuthController {
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
	}
}

type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FullName        string `json:"full_name" binding:"required,max=100"`
	BusinessName    string `json:"business_name" binding:"max=150"`
	Phone           string `json:"phone" binding:"max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Register handles owner sign-up. The account starts on a free trial.
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
		BusinessName:    req.BusinessName,
		Phone:           req.Phone,
		Language:        middleware.GetLocale(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			apperrors.RespondWithValidationError(c, map[string]string{
				"confirm_password": "must match password",
			})
		case util.IsPasswordPolicyError(err):
			apperrors.RespondWithValidationError(c, map[string]string{
				"password": err.Error(),
			})
		case errors.Is(err, service.ErrEmailAlreadyExists):
			log.Warn("Registration failed: email already exists", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "An account with this email already exists")
		default:
			log.Error("Registration failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		}
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"tokens":  tokens,
	})
}

// Login handles email/password login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// RefreshToken exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) || errors.Is(err, service.ErrUserNotFound) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Refresh token is invalid or expired")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the current access token and the refresh token sent in the body
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	tokenID, expiresAt, ok := middleware.GetTokenID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.RespondWithBindError(c, err)
			return
		}
	}

	err := ctrl.authService.Logout(c.Request.Context(), service.LogoutInput{
		UserID:        userID,
		AccessTokenID: tokenID,
		AccessExpiry:  expiresAt,
		RefreshToken:  req.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Refresh token is invalid or expired")
			return
		}
		log.Error("Logout failed", err)
		apperrors.InternalError(c, "Failed to log out")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns the authenticated user with profile and subscription
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ForgotPassword emails a reset link. The answer is the same whether or not
// the address has an account.
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	if err := ctrl.passwordResetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Error("Password reset request failed", err)
		if errors.Is(err, service.ErrEmailNotConfigured) || errors.Is(err, service.ErrEmailSendFailed) {
			apperrors.BadGateway(c, apperrors.EmailSendFailed, "failed to send email")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "request password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists for this email, a reset link has been sent",
	})
}

// ValidateResetToken checks a reset token without consuming it
// GET /api/v1/auth/reset-password/validate?token=
func (ctrl *AuthController) ValidateResetToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "token is required")
		return
	}

	if err := ctrl.passwordResetService.ValidateToken(token); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "Reset link is invalid or has expired")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "validate reset token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword sets a new password with a single-use token
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	err := ctrl.passwordResetService.ResetPassword(req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordMismatch):
			apperrors.RespondWithValidationError(c, map[string]string{
				"confirm_password": "must match new_password",
			})
		case util.IsPasswordPolicyError(err):
			apperrors.RespondWithValidationError(c, map[string]string{
				"new_password": err.Error(),
			})
		case errors.Is(err, service.ErrInvalidResetToken):
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "Reset link is invalid or has expired")
		default:
			log.Error("Password reset failed", err)
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "reset password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}
