package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
	"github.com/tablemenu/menu-backend/internal/storage"
)

type stubPresigner struct {
	err    error
	folder string
}

func (p *stubPresigner) PresignPut(_ context.Context, folder, ext, contentType string, size int64) (*storage.PresignedUpload, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.folder = folder
	key := folder + "/image" + ext
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.s3.test/" + key + "?sig=1",
		FileURL:   "https://bucket.s3.test/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func setupUploadTest(presigner service.Presigner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewUploadController(service.NewUploadService(presigner))

	r := gin.New()
	r.POST("/upload/image", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uint(7))
		c.Next()
	}, ctrl.PresignImage)
	return r
}

func postUpload(r *gin.Engine, req ImageUploadRequest) *httptest.ResponseRecorder {
	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/upload/image", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func TestUploadController_PresignImage(t *testing.T) {
	presigner := &stubPresigner{}
	r := setupUploadTest(presigner)

	w := postUpload(r, ImageUploadRequest{Filename: "logo.png", ContentType: "image/png", Size: 1024, Purpose: "logo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp storage.PresignedUpload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Key, "users/7/")
	assert.NotEmpty(t, resp.UploadURL)
	assert.Contains(t, presigner.folder, "users/7/")
}

func TestUploadController_PresignImage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		presigner  service.Presigner
		req        ImageUploadRequest
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not configured",
			presigner:  nil,
			req:        ImageUploadRequest{Filename: "a.png", ContentType: "image/png", Size: 10, Purpose: "item"},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.InternalConfigError,
		},
		{
			name:       "wrong type",
			presigner:  &stubPresigner{},
			req:        ImageUploadRequest{Filename: "a.gif", ContentType: "image/gif", Size: 10, Purpose: "item"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.UploadInvalidFileType,
		},
		{
			name:       "too large",
			presigner:  &stubPresigner{},
			req:        ImageUploadRequest{Filename: "a.jpg", ContentType: "image/jpeg", Size: service.MaxImageSize + 1, Purpose: "item"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.UploadFileTooLarge,
		},
		{
			name:       "unknown purpose",
			presigner:  &stubPresigner{},
			req:        ImageUploadRequest{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10, Purpose: "banner"},
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ValidationInvalidInput,
		},
		{
			name:       "storage failure",
			presigner:  &stubPresigner{err: errors.New("s3 down")},
			req:        ImageUploadRequest{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10, Purpose: "item"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.UploadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postUpload(setupUploadTest(tt.presigner), tt.req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w)["error"])
		})
	}
}
