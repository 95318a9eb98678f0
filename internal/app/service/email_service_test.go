package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/pkg/mailer/resend"
)

func TestEmailService_Templates(t *testing.T) {
	mailer := &fakeMailer{}
	svc, err := NewEmailService(mailer, "TableMenu <noreply@tablemenu.test>", "https://app.tablemenu.test/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.SendWelcome(ctx, "anna@example.com", "Anna <b>", 14, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, svc.SendTrialEnding(ctx, "anna@example.com", "Anna", 1))
	require.NoError(t, svc.SendTest(ctx, "ops@example.com"))

	sent := mailer.Sent()
	require.Len(t, sent, 3)

	welcome := sent[0]
	assert.Equal(t, "TableMenu <noreply@tablemenu.test>", welcome.From)
	assert.Equal(t, "Welcome to TableMenu", welcome.Subject)
	assert.Contains(t, welcome.HTML, "Anna &lt;b&gt;")
	assert.Contains(t, welcome.HTML, "14-day trial")
	assert.Contains(t, welcome.HTML, "April 2, 2026")
	assert.Contains(t, welcome.HTML, "https://app.tablemenu.test/dashboard")
	assert.Equal(t, []resend.Tag{{Name: "category", Value: "welcome"}}, welcome.Tags)

	assert.Equal(t, "Your TableMenu trial ends tomorrow", sent[1].Subject)
	assert.Contains(t, sent[1].HTML, "1 day.")
	assert.Equal(t, []string{"ops@example.com"}, sent[2].To)
}

func TestEmailService_Send(t *testing.T) {
	mailer := &fakeMailer{}
	svc, err := NewEmailService(mailer, "noreply@tablemenu.test", "")
	require.NoError(t, err)
	ctx := context.Background()

	id, err := svc.Send(ctx, []string{"a@example.com"}, "Hello", "<p>Hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "msg_1", id)

	_, err = svc.Send(ctx, nil, "Hello", "<p>Hi</p>")
	assert.ErrorIs(t, err, ErrInvalidEmailInput)
	_, err = svc.Send(ctx, []string{"a@example.com"}, " ", "<p>Hi</p>")
	assert.ErrorIs(t, err, ErrInvalidEmailInput)

	mailer.err = resend.ErrRateLimited
	_, err = svc.Send(ctx, []string{"a@example.com"}, "Hello", "<p>Hi</p>")
	assert.ErrorIs(t, err, ErrEmailSendFailed)
	// one attempt per call
	assert.Len(t, mailer.Sent(), 2)

	status := svc.Status()
	assert.True(t, status.Configured)
	assert.Equal(t, "resend", status.Provider)
	assert.Equal(t, "closed", status.BreakerState)
}

func TestEmailService_NotConfigured(t *testing.T) {
	svc, err := NewEmailService(nil, "noreply@tablemenu.test", "")
	require.NoError(t, err)

	assert.False(t, svc.Status().Configured)
	assert.ErrorIs(t, svc.SendTest(context.Background(), "ops@example.com"), ErrEmailNotConfigured)
	_, err = svc.Send(context.Background(), []string{"a@example.com"}, "Hello", "<p>Hi</p>")
	assert.ErrorIs(t, err, ErrEmailNotConfigured)
}
