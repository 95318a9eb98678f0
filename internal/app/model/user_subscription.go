package model

import (
	"time"

	"github.com/tablemenu/menu-backend/internal/entitlement"
)

type UserSubscription struct {
	ID                  uint                 `gorm:"primarykey" json:"id"`
	UserID              uint                 `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanType            entitlement.PlanType `gorm:"type:varchar(20);not null;default:'free'" json:"plan_type"`
	Status              entitlement.Status   `gorm:"type:varchar(20);not null;default:'trial';index" json:"status"`
	TrialEndDate        *time.Time           `gorm:"index" json:"trial_end_date,omitempty"`
	SubscriptionEndDate *time.Time           `json:"subscription_end_date,omitempty"`
	RestaurantCount     int                  `gorm:"default:0" json:"restaurant_count"` // denormalized, refreshed on create/delete
	TrialReminderSentAt *time.Time           `json:"-"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// Record converts the row for the resolver. A nil receiver yields nil.
func (s *UserSubscription) Record() *entitlement.Subscription {
	if s == nil {
		return nil
	}
	return &entitlement.Subscription{
		PlanType:            s.PlanType,
		Status:              s.Status,
		TrialEndDate:        s.TrialEndDate,
		SubscriptionEndDate: s.SubscriptionEndDate,
	}
}

func (s *UserSubscription) Resolve(now time.Time) entitlement.Entitlement {
	return entitlement.Resolve(s.Record(), now)
}
