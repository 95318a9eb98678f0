package repository

import (
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	FindByUserID(userID uint) (*model.UserSubscription, error)
	Update(sub *model.UserSubscription) error
	// RefreshRestaurantCount recounts live restaurants and stores the result.
	RefreshRestaurantCount(userID uint) (int, error)
	// ExpireTrials flips trials that ended at or before now to expired.
	ExpireTrials(now time.Time) (int64, error)
	// FindTrialsEndingBefore lists running trials ending in (now, cutoff] that were not reminded yet.
	FindTrialsEndingBefore(now, cutoff time.Time) ([]model.UserSubscription, error)
	MarkReminderSent(id uint, at time.Time) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindByUserID(userID uint) (*model.UserSubscription, error) {
	logger.Debug("Finding subscription by user in database", map[string]interface{}{
		"user_id": userID,
	})

	var sub model.UserSubscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		logLookupError("Failed to find subscription in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(sub *model.UserSubscription) error {
	logger.Debug("Updating subscription in database", map[string]interface{}{
		"user_id":   sub.UserID,
		"plan_type": sub.PlanType,
		"status":    sub.Status,
	})

	if err := r.db.Save(sub).Error; err != nil {
		logger.Error("Failed to update subscription in database", err, map[string]interface{}{
			"user_id": sub.UserID,
		})
		return err
	}
	return nil
}

func (r *subscriptionRepository) RefreshRestaurantCount(userID uint) (int, error) {
	var count int64
	if err := r.db.Model(&model.Restaurant{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		logger.Error("Failed to count restaurants", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}

	if err := r.db.Model(&model.UserSubscription{}).
		Where("user_id = ?", userID).
		Update("restaurant_count", count).Error; err != nil {
		logger.Error("Failed to refresh restaurant count", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}

	logger.Debug("Restaurant count refreshed", map[string]interface{}{
		"user_id": userID,
		"count":   count,
	})
	return int(count), nil
}

func (r *subscriptionRepository) ExpireTrials(now time.Time) (int64, error) {
	res := r.db.Model(&model.UserSubscription{}).
		Where("status = ? AND trial_end_date IS NOT NULL AND trial_end_date <= ?", entitlement.StatusTrial, now).
		Update("status", entitlement.StatusExpired)
	if res.Error != nil {
		logger.Error("Failed to expire trials", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *subscriptionRepository) FindTrialsEndingBefore(now, cutoff time.Time) ([]model.UserSubscription, error) {
	var subs []model.UserSubscription
	err := r.db.
		Where("status = ? AND trial_reminder_sent_at IS NULL", entitlement.StatusTrial).
		Where("trial_end_date > ? AND trial_end_date <= ?", now, cutoff).
		Order("trial_end_date ASC").
		Find(&subs).Error
	if err != nil {
		logger.Error("Failed to find trials ending soon", err)
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) MarkReminderSent(id uint, at time.Time) error {
	return r.db.Model(&model.UserSubscription{}).Where("id = ?", id).Update("trial_reminder_sent_at", at).Error
}
