package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/tablemenu/menu-backend/internal/storage"
	"github.com/tablemenu/menu-backend/pkg/logger"
)

var (
	ErrUploadsNotConfigured = errors.New("image uploads are not configured")
	ErrInvalidContentType   = errors.New("only jpeg, png and webp images are allowed")
	ErrFileTooLarge         = errors.New("image exceeds the 5 MB limit")
	ErrInvalidUploadPurpose = errors.New("purpose must be logo or item")
)

const MaxImageSize int64 = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var uploadFolders = map[string]string{
	"logo": "logos",
	"item": "items",
}

type Presigner interface {
	PresignPut(ctx context.Context, folder, ext, contentType string, size int64) (*storage.PresignedUpload, error)
}

type ImageUploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Purpose     string
}

type UploadService interface {
	PresignImage(ctx context.Context, userID uint, input ImageUploadInput) (*storage.PresignedUpload, error)
}

type uploadService struct {
	presigner Presigner
}

// NewUploadService accepts a nil presigner; every request then fails with ErrUploadsNotConfigured.
func NewUploadService(presigner Presigner) UploadService {
	return &uploadService{presigner: presigner}
}

func (s *uploadService) PresignImage(ctx context.Context, userID uint, input ImageUploadInput) (*storage.PresignedUpload, error) {
	if s.presigner == nil {
		return nil, ErrUploadsNotConfigured
	}

	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrInvalidContentType
	}
	if input.Size <= 0 || input.Size > MaxImageSize {
		return nil, ErrFileTooLarge
	}
	folder, ok := uploadFolders[input.Purpose]
	if !ok {
		return nil, ErrInvalidUploadPurpose
	}

	// keep the client's extension when it agrees with the content type
	if given := strings.ToLower(path.Ext(input.Filename)); given == ".jpeg" && ext == ".jpg" {
		ext = given
	}

	upload, err := s.presigner.PresignPut(ctx, fmt.Sprintf("users/%d/%s", userID, folder), ext, contentType, input.Size)
	if err != nil {
		logger.Error("Failed to presign image upload", err, map[string]interface{}{
			"user_id": userID,
			"purpose": input.Purpose,
		})
		return nil, err
	}

	logger.Info("Image upload presigned", map[string]interface{}{
		"user_id": userID,
		"key":     upload.Key,
	})
	return upload, nil
}
