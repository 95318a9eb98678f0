package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

type EmailController struct {
	emailService service.EmailService
}

func NewEmailController(emailService service.EmailService) *EmailController {
	return &EmailController{emailService: emailService}
}

type TestEmailRequest struct {
	To string `json:"to" binding:"required,email"`
}

type SendEmailRequest struct {
	To      []string `json:"to" binding:"required,min=1,max=50,dive,email"`
	Subject string   `json:"subject" binding:"required,max=200"`
	HTML    string   `json:"html" binding:"required"`
}

// respondSendError never retries; the caller decides whether to try again.
func respondSendError(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Error("Email request failed", err)
	switch {
	case errors.Is(err, service.ErrEmailNotConfigured):
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.EmailNotConfigured, "Email provider is not configured")
	case errors.Is(err, service.ErrInvalidEmailInput):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "to, subject and html are required")
	default:
		apperrors.BadGateway(c, apperrors.EmailSendFailed, "failed to send email")
	}
}

// Status reports whether the provider is configured and the breaker state
// GET /api/v1/admin/email/status
func (ctrl *EmailController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, ctrl.emailService.Status())
}

// SendTest sends the test template to one address
// POST /api/v1/admin/email/test
func (ctrl *EmailController) SendTest(c *gin.Context) {
	var req TestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	if err := ctrl.emailService.SendTest(c.Request.Context(), req.To); err != nil {
		respondSendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test email sent"})
}

// Send forwards caller-supplied HTML
// POST /api/v1/email/send
func (ctrl *EmailController) Send(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	id, err := ctrl.emailService.Send(c.Request.Context(), req.To, req.Subject, req.HTML)
	if err != nil {
		respondSendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email sent",
		"id":      id,
	})
}
