package service

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/mailer/resend"
)

var (
	ErrEmailNotConfigured = errors.New("email provider is not configured")
	ErrEmailSendFailed    = errors.New("failed to send email")
	ErrInvalidEmailInput  = errors.New("invalid email input")
)

//go:embed templates/email/*.html
var emailTemplateFS embed.FS

var emailTemplateNames = []string{"welcome", "password_reset", "trial_ending", "test"}

// Mailer is the transport used by EmailService. *resend.Client satisfies it.
type Mailer interface {
	Send(ctx context.Context, req resend.SendRequest) (*resend.SendResponse, error)
	BreakerState() string
}

type EmailStatus struct {
	Configured   bool   `json:"configured"`
	Provider     string `json:"provider"`
	From         string `json:"from"`
	BreakerState string `json:"breaker_state,omitempty"`
}

type EmailService interface {
	Status() EmailStatus
	SendWelcome(ctx context.Context, to, name string, trialDays int, trialEnds time.Time) error
	SendPasswordReset(ctx context.Context, to, name, link string) error
	SendTrialEnding(ctx context.Context, to, name string, daysLeft int) error
	SendTest(ctx context.Context, to string) error
	// Send forwards caller-supplied HTML as is and returns the provider message id.
	Send(ctx context.Context, to []string, subject, html string) (string, error)
}

type emailService struct {
	mailer    Mailer
	from      string
	publicURL string
	templates map[string]*template.Template
}

// NewEmailService builds the service. A nil mailer leaves email disabled:
// every send returns ErrEmailNotConfigured.
func NewEmailService(mailer Mailer, from, publicURL string) (EmailService, error) {
	templates, err := loadEmailTemplates()
	if err != nil {
		return nil, err
	}
	return &emailService{
		mailer:    mailer,
		from:      from,
		publicURL: strings.TrimRight(publicURL, "/"),
		templates: templates,
	}, nil
}

func loadEmailTemplates() (map[string]*template.Template, error) {
	layout, err := template.ParseFS(emailTemplateFS, "templates/email/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email layout: %w", err)
	}

	templates := make(map[string]*template.Template, len(emailTemplateNames))
	for _, name := range emailTemplateNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(emailTemplateFS, "templates/email/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		templates[name] = t
	}
	return templates, nil
}

func (s *emailService) Status() EmailStatus {
	status := EmailStatus{
		Configured: s.mailer != nil,
		Provider:   "resend",
		From:       s.from,
	}
	if s.mailer != nil {
		status.BreakerState = s.mailer.BreakerState()
	}
	return status
}

func (s *emailService) SendWelcome(ctx context.Context, to, name string, trialDays int, trialEnds time.Time) error {
	return s.sendTemplate(ctx, to, "Welcome to TableMenu", "welcome", map[string]interface{}{
		"Name":         name,
		"TrialDays":    trialDays,
		"TrialEnds":    trialEnds.Format("January 2, 2006"),
		"DashboardURL": s.publicURL + "/dashboard",
	})
}

func (s *emailService) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return s.sendTemplate(ctx, to, "Reset your TableMenu password", "password_reset", map[string]interface{}{
		"Name": name,
		"Link": link,
	})
}

func (s *emailService) SendTrialEnding(ctx context.Context, to, name string, daysLeft int) error {
	subject := fmt.Sprintf("Your TableMenu trial ends in %d days", daysLeft)
	if daysLeft == 1 {
		subject = "Your TableMenu trial ends tomorrow"
	}
	return s.sendTemplate(ctx, to, subject, "trial_ending", map[string]interface{}{
		"Name":       name,
		"DaysLeft":   daysLeft,
		"BillingURL": s.publicURL + "/dashboard/billing",
	})
}

func (s *emailService) SendTest(ctx context.Context, to string) error {
	return s.sendTemplate(ctx, to, "TableMenu test email", "test", map[string]interface{}{
		"SentAt": time.Now().UTC().Format(time.RFC1123),
	})
}

func (s *emailService) Send(ctx context.Context, to []string, subject, html string) (string, error) {
	if len(to) == 0 || strings.TrimSpace(subject) == "" || strings.TrimSpace(html) == "" {
		return "", ErrInvalidEmailInput
	}
	return s.deliver(ctx, resend.SendRequest{
		To:      to,
		Subject: subject,
		HTML:    html,
	})
}

func (s *emailService) sendTemplate(ctx context.Context, to, subject, name string, data map[string]interface{}) error {
	t, ok := s.templates[name]
	if !ok {
		return fmt.Errorf("unknown email template %q", name)
	}

	data["Subject"] = subject
	var body bytes.Buffer
	if err := t.ExecuteTemplate(&body, "layout", data); err != nil {
		logger.Error("Failed to render email template", err, map[string]interface{}{
			"template": name,
		})
		return err
	}

	_, err := s.deliver(ctx, resend.SendRequest{
		To:      []string{to},
		Subject: subject,
		HTML:    body.String(),
		Tags:    []resend.Tag{{Name: "category", Value: name}},
	})
	return err
}

// deliver makes exactly one attempt.
func (s *emailService) deliver(ctx context.Context, req resend.SendRequest) (string, error) {
	if s.mailer == nil {
		logger.Warn("Email not sent: provider not configured", map[string]interface{}{
			"subject": req.Subject,
		})
		return "", ErrEmailNotConfigured
	}
	if req.From == "" {
		req.From = s.from
	}

	resp, err := s.mailer.Send(ctx, req)
	if err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"to":      req.To,
			"subject": req.Subject,
		})
		if errors.Is(err, resend.ErrNotConfigured) {
			return "", ErrEmailNotConfigured
		}
		return "", fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"to":         req.To,
		"subject":    req.Subject,
		"message_id": resp.ID,
	})
	return resp.ID, nil
}
