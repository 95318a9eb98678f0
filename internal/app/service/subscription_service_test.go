package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/entitlement"
)

func TestSubscriptionService_Plans(t *testing.T) {
	env := newTestEnv(t)

	plans := env.subscriptions.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, entitlement.PlanFree, plans[0].Type)
	assert.Equal(t, 9.99, plans[1].MonthlyPrice)
	assert.Equal(t, 19.99, plans[2].MonthlyPrice)
}

func TestSubscriptionService_Entitlement(t *testing.T) {
	env := newTestEnv(t)

	trial := env.createOwner(t, "trial@example.com", entitlement.PlanFree, true)
	ent, err := env.subscriptions.Entitlement(trial.ID)
	require.NoError(t, err)
	assert.True(t, ent.IsTrialActive)
	assert.Equal(t, 14, ent.TrialDaysLeft)
	assert.True(t, ent.CanUseTemplate(entitlement.TemplateModern))

	expired := env.createOwner(t, "expired@example.com", entitlement.PlanFree, false)
	ent, err = env.subscriptions.Entitlement(expired.ID)
	require.NoError(t, err)
	assert.False(t, ent.HasAnalytics())
	assert.False(t, ent.CanUseTemplate(entitlement.TemplateModern))

	// no row at all resolves to free
	ent, err = env.subscriptions.Entitlement(777)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanFree, ent.PlanType)
}

func TestSubscriptionService_ChangePlan(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	for _, name := range []string{"One", "Two", "Three"} {
		env.createRestaurant(t, owner.ID, name)
	}

	_, err := env.subscriptions.ChangePlan(owner.ID, "gold")
	assert.ErrorIs(t, err, ErrInvalidPlanType)

	_, err = env.subscriptions.ChangePlan(owner.ID, entitlement.PlanFree)
	assert.ErrorIs(t, err, ErrDowngradeBlocked)

	overview, err := env.subscriptions.ChangePlan(owner.ID, entitlement.PlanPremiumPlus)
	require.NoError(t, err)
	assert.Equal(t, entitlement.PlanPremiumPlus, overview.Entitlement.PlanType)
	assert.Equal(t, entitlement.StatusActive, overview.Subscription.Status)
	require.NotNil(t, overview.Subscription.SubscriptionEndDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *overview.Subscription.SubscriptionEndDate, time.Minute)
	assert.Equal(t, 3, overview.RestaurantCount)
	assert.Equal(t, 7, overview.RestaurantsLeft)

	_, err = env.subscriptions.ChangePlan(9999, entitlement.PlanPremium)
	assert.ErrorIs(t, err, ErrSubscriptionMissing)
}

func TestSubscriptionService_Cancel(t *testing.T) {
	env := newTestEnv(t)

	trial := env.createOwner(t, "trial@example.com", entitlement.PlanFree, true)
	_, err := env.subscriptions.Cancel(trial.ID)
	assert.ErrorIs(t, err, ErrNothingToCancel)

	paid := env.createOwner(t, "paid@example.com", entitlement.PlanPremium, false)
	overview, err := env.subscriptions.Cancel(paid.ID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusCancelled, overview.Subscription.Status)
	// paid features last until the period end
	assert.Equal(t, entitlement.PlanPremium, overview.Entitlement.PlanType)
	assert.True(t, overview.Features.Analytics)

	_, err = env.subscriptions.Cancel(paid.ID)
	assert.ErrorIs(t, err, ErrNothingToCancel)
}

func TestSubscriptionService_TrialHousekeeping(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()

	soon := env.createOwner(t, "soon@example.com", entitlement.PlanFree, true)
	later := env.createOwner(t, "later@example.com", entitlement.PlanFree, true)
	ended := env.createOwner(t, "ended@example.com", entitlement.PlanFree, true)

	setTrialEnd := func(userID uint, end time.Time) {
		require.NoError(t, env.db.Model(&model.UserSubscription{}).
			Where("user_id = ?", userID).Update("trial_end_date", end).Error)
	}
	setTrialEnd(soon.ID, now.Add(2*24*time.Hour))
	setTrialEnd(later.ID, now.Add(10*24*time.Hour))
	setTrialEnd(ended.ID, now.Add(-time.Hour))

	expired, err := env.subscriptions.ExpireTrials(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	sub, err := env.subRepo.FindByUserID(ended.ID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.StatusExpired, sub.Status)

	ctx := context.Background()

	env.mailer.err = errors.New("provider down")
	sent, err := env.subscriptions.SendTrialReminders(ctx, now, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	// the failed reminder is retried by the next sweep
	env.mailer.err = nil
	sent, err = env.subscriptions.SendTrialReminders(ctx, now, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	last := env.mailer.Sent()[len(env.mailer.Sent())-1]
	assert.Equal(t, []string{"soon@example.com"}, last.To)
	assert.Equal(t, "Your TableMenu trial ends in 2 days", last.Subject)

	sent, err = env.subscriptions.SendTrialReminders(ctx, now, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
