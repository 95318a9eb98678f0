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

type ProfileController struct {
	profileService service.ProfileService
}

func NewProfileController(profileService service.ProfileService) *ProfileController {
	return &ProfileController{profileService: profileService}
}

type UpdateProfileRequest struct {
	FullName     *string `json:"full_name" binding:"omitempty,min=1,max=100"`
	BusinessName *string `json:"business_name" binding:"omitempty,max=150"`
	Phone        *string `json:"phone" binding:"omitempty,max=30"`
	Language     *string `json:"language" binding:"omitempty,oneof=en de"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// GetProfile returns the account with its profile
// GET /api/v1/profile
func (ctrl *ProfileController) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.profileService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		respondUnexpected(c, err, "get profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile changes display fields
// PUT /api/v1/profile
func (ctrl *ProfileController) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	user, err := ctrl.profileService.UpdateProfile(userID, service.ProfileUpdate{
		FullName:     req.FullName,
		BusinessName: req.BusinessName,
		Phone:        req.Phone,
		Language:     req.Language,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		respondUnexpected(c, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"user":    user,
	})
}

// ChangePassword replaces the password after checking the current one
// PUT /api/v1/profile/password
func (ctrl *ProfileController) ChangePassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	err := ctrl.profileService.ChangePassword(userID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
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
		case errors.Is(err, service.ErrIncorrectPassword):
			log.Warn("Password change rejected", map[string]interface{}{
				"user_id": userID,
			})
			apperrors.BadRequest(c, apperrors.AuthPasswordMismatch, "Current password is incorrect")
		default:
			respondUnexpected(c, err, "change password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}
