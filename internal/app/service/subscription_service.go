package service

import (
	"context"
	"errors"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidPlanType     = errors.New("invalid plan type")
	ErrDowngradeBlocked    = errors.New("current restaurant count exceeds the target plan limit")
	ErrNothingToCancel     = errors.New("no active paid subscription to cancel")
	ErrSubscriptionMissing = errors.New("subscription not found")
)

// BillingPeriod is how long a plan change stays paid for.
const BillingPeriod = 1 // months

// SubscriptionOverview is the billing page payload.
type SubscriptionOverview struct {
	Subscription    *model.UserSubscription `json:"subscription"`
	Entitlement     entitlement.Entitlement `json:"entitlement"`
	Plan            entitlement.Plan        `json:"plan"`
	Features        entitlement.Features    `json:"features"`
	RestaurantCount int                     `json:"restaurant_count"`
	RestaurantsLeft int                     `json:"restaurants_left"`
}

type SubscriptionService interface {
	Plans() []entitlement.Plan
	// Entitlement resolves the user's access now. A missing row resolves to free.
	Entitlement(userID uint) (entitlement.Entitlement, error)
	GetOverview(userID uint) (*SubscriptionOverview, error)
	ChangePlan(userID uint, plan entitlement.PlanType) (*SubscriptionOverview, error)
	Cancel(userID uint) (*SubscriptionOverview, error)
	ExpireTrials(now time.Time) (int64, error)
	SendTrialReminders(ctx context.Context, now time.Time, withinDays int) (int, error)
}

type subscriptionService struct {
	subRepo      repository.SubscriptionRepository
	userRepo     repository.UserRepository
	emailService EmailService
	catalog      *entitlement.Catalog
}

func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	emailService EmailService,
) SubscriptionService {
	return &subscriptionService{
		subRepo:      subRepo,
		userRepo:     userRepo,
		emailService: emailService,
		catalog:      entitlement.DefaultCatalog,
	}
}

func (s *subscriptionService) Plans() []entitlement.Plan {
	return s.catalog.Plans()
}

func (s *subscriptionService) findSubscription(userID uint) (*model.UserSubscription, error) {
	sub, err := s.subRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) Entitlement(userID uint) (entitlement.Entitlement, error) {
	sub, err := s.findSubscription(userID)
	if err != nil {
		return entitlement.Entitlement{}, err
	}
	return s.catalog.Resolve(sub.Record(), time.Now()), nil
}

func (s *subscriptionService) GetOverview(userID uint) (*SubscriptionOverview, error) {
	sub, err := s.findSubscription(userID)
	if err != nil {
		return nil, err
	}
	return s.overview(sub, time.Now()), nil
}

func (s *subscriptionService) overview(sub *model.UserSubscription, now time.Time) *SubscriptionOverview {
	ent := s.catalog.Resolve(sub.Record(), now)
	count := 0
	if sub != nil {
		count = sub.RestaurantCount
	}
	left := ent.MaxRestaurants - count
	if left < 0 {
		left = 0
	}
	return &SubscriptionOverview{
		Subscription:    sub,
		Entitlement:     ent,
		Plan:            s.catalog.Plan(ent.PlanType),
		Features:        ent.Features(),
		RestaurantCount: count,
		RestaurantsLeft: left,
	}
}

func (s *subscriptionService) ChangePlan(userID uint, plan entitlement.PlanType) (*SubscriptionOverview, error) {
	if !plan.IsValid() {
		return nil, ErrInvalidPlanType
	}

	sub, err := s.findSubscription(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionMissing
	}

	count, err := s.subRepo.RefreshRestaurantCount(userID)
	if err != nil {
		return nil, err
	}
	sub.RestaurantCount = count

	target := s.catalog.Plan(plan)
	if count > target.MaxRestaurants {
		logger.Warn("Plan change blocked by restaurant usage", map[string]interface{}{
			"user_id":    userID,
			"plan_type":  plan,
			"count":      count,
			"plan_limit": target.MaxRestaurants,
		})
		return nil, ErrDowngradeBlocked
	}

	now := time.Now()
	previous := sub.PlanType
	sub.PlanType = plan
	sub.Status = entitlement.StatusActive
	if plan == entitlement.PlanFree {
		sub.SubscriptionEndDate = nil
	} else {
		end := now.AddDate(0, BillingPeriod, 0)
		sub.SubscriptionEndDate = &end
	}

	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}

	logger.Info("Subscription plan changed", map[string]interface{}{
		"user_id":     userID,
		"from":        previous,
		"to":          plan,
		"ends_at":     sub.SubscriptionEndDate,
		"restaurants": count,
	})
	return s.overview(sub, now), nil
}

func (s *subscriptionService) Cancel(userID uint) (*SubscriptionOverview, error) {
	sub, err := s.findSubscription(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.PlanType == entitlement.PlanFree || sub.Status != entitlement.StatusActive {
		return nil, ErrNothingToCancel
	}

	// paid features stay on until the period end
	sub.Status = entitlement.StatusCancelled
	if err := s.subRepo.Update(sub); err != nil {
		return nil, err
	}

	logger.Info("Subscription cancelled", map[string]interface{}{
		"user_id":   userID,
		"plan_type": sub.PlanType,
		"ends_at":   sub.SubscriptionEndDate,
	})
	return s.overview(sub, time.Now()), nil
}

func (s *subscriptionService) ExpireTrials(now time.Time) (int64, error) {
	n, err := s.subRepo.ExpireTrials(now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("Expired ended trials", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}

func (s *subscriptionService) SendTrialReminders(ctx context.Context, now time.Time, withinDays int) (int, error) {
	subs, err := s.subRepo.FindTrialsEndingBefore(now, now.AddDate(0, 0, withinDays))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		user, err := s.userRepo.FindByID(sub.UserID)
		if err != nil {
			logger.Warn("Skipping trial reminder: user lookup failed", map[string]interface{}{
				"user_id": sub.UserID,
				"error":   err.Error(),
			})
			continue
		}
		name := ""
		if user.Profile != nil {
			name = user.Profile.FullName
		}

		ent := s.catalog.Resolve(sub.Record(), now)
		if err := s.emailService.SendTrialEnding(ctx, user.Email, name, ent.TrialDaysLeft); err != nil {
			// left unmarked so the next sweep considers it again
			continue
		}
		if err := s.subRepo.MarkReminderSent(sub.ID, now); err != nil {
			logger.Error("Failed to mark trial reminder", err, map[string]interface{}{
				"subscription_id": sub.ID,
			})
			continue
		}
		sent++
	}

	return sent, nil
}
