package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

type UploadController struct {
	uploadService service.UploadService
}

func NewUploadController(uploadService service.UploadService) *UploadController {
	return &UploadController{uploadService: uploadService}
}

type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
	Purpose     string `json:"purpose" binding:"required,oneof=logo item"`
}

// PresignImage returns a presigned S3 PUT URL for a logo or item image.
// The browser uploads directly and then stores file_url on the restaurant or item.
// POST /api/v1/upload/image
func (ctrl *UploadController) PresignImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid upload request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	upload, err := ctrl.uploadService.PresignImage(c.Request.Context(), userID, service.ImageUploadInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
		Purpose:     req.Purpose,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidContentType):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG and WEBP images are allowed")
		case errors.Is(err, service.ErrFileTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Images may be at most 5 MB")
		case errors.Is(err, service.ErrInvalidUploadPurpose):
			apperrors.RespondWithValidationError(c, map[string]string{"purpose": "must be one of: logo item"})
		case errors.Is(err, service.ErrUploadsNotConfigured):
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalConfigError, "Image uploads are not available")
		default:
			log.Error("Failed to presign upload", err)
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare the upload")
		}
		return
	}

	c.JSON(http.StatusOK, upload)
}
