package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
)

func setupEmailTest(t *testing.T, mailer service.Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	emailService, err := service.NewEmailService(mailer, "TableMenu <noreply@tablemenu.test>", "https://app.tablemenu.test")
	require.NoError(t, err)
	ctrl := NewEmailController(emailService)

	r := gin.New()
	r.GET("/email/status", ctrl.Status)
	r.POST("/email/test", ctrl.SendTest)
	r.POST("/email/send", ctrl.Send)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEmailController_Status(t *testing.T) {
	w := serve(setupEmailTest(t, &stubMailer{}), http.MethodGet, "/email/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, true, status["configured"])

	w = serve(setupEmailTest(t, nil), http.MethodGet, "/email/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, false, status["configured"])
}

func TestEmailController_Send(t *testing.T) {
	mailer := &stubMailer{}
	r := setupEmailTest(t, mailer)

	w := serve(r, http.MethodPost, "/email/send", `{"to":["guest@example.com"],"subject":"Hello","html":"<p>Hi</p>"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"msg_1"`)
	assert.Equal(t, 1, mailer.count())

	w = serve(r, http.MethodPost, "/email/send", `{"to":[],"subject":"Hello","html":"<p>Hi</p>"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/email/send", `{"to":["not-an-email"],"subject":"Hello","html":"<p>Hi</p>"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, mailer.count())
}

func TestEmailController_NotConfigured(t *testing.T) {
	r := setupEmailTest(t, nil)

	w := serve(r, http.MethodPost, "/email/test", `{"to":"owner@example.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperrors.EmailNotConfigured, decodeError(t, w)["error"])

	w = serve(r, http.MethodPost, "/email/send", `{"to":["guest@example.com"],"subject":"Hello","html":"<p>Hi</p>"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
