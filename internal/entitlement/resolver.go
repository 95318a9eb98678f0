package entitlement

import (
	"math"
	"time"
)

// Status is the lifecycle state of a subscription row.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Subscription is the stored state the resolver reads. Any field may be zero.
type Subscription struct {
	PlanType            PlanType
	Status              Status
	TrialEndDate        *time.Time
	SubscriptionEndDate *time.Time
}

// Entitlement is the effective access a user has at a point in time.
type Entitlement struct {
	PlanType       PlanType   `json:"plan_type"`
	Status         Status     `json:"status"`
	IsTrialActive  bool       `json:"is_trial_active"`
	TrialDaysLeft  int        `json:"trial_days_left"`
	TrialEndsAt    *time.Time `json:"trial_ends_at,omitempty"`
	PeriodEndsAt   *time.Time `json:"period_ends_at,omitempty"`
	MaxRestaurants int        `json:"max_restaurants"`
}

// Resolve computes the entitlement for sub using the default catalog.
func Resolve(sub *Subscription, now time.Time) Entitlement {
	return DefaultCatalog.Resolve(sub, now)
}

// Resolve never fails: a nil or garbled record resolves to the free plan.
func (c *Catalog) Resolve(sub *Subscription, now time.Time) Entitlement {
	if sub == nil {
		return Entitlement{
			PlanType:       PlanFree,
			MaxRestaurants: c.Plan(PlanFree).MaxRestaurants,
		}
	}

	e := Entitlement{
		PlanType:     effectivePlan(sub, now),
		Status:       sub.Status,
		TrialEndsAt:  sub.TrialEndDate,
		PeriodEndsAt: sub.SubscriptionEndDate,
	}
	e.MaxRestaurants = c.Plan(e.PlanType).MaxRestaurants

	if sub.Status == StatusTrial && sub.TrialEndDate != nil {
		e.IsTrialActive = sub.TrialEndDate.After(now)
		e.TrialDaysLeft = daysLeft(*sub.TrialEndDate, now)
	}

	return e
}

func effectivePlan(sub *Subscription, now time.Time) PlanType {
	if !sub.PlanType.IsValid() {
		return PlanFree
	}
	switch sub.Status {
	case StatusExpired:
		return PlanFree
	case StatusCancelled:
		if sub.SubscriptionEndDate == nil || !sub.SubscriptionEndDate.After(now) {
			return PlanFree
		}
	}
	return sub.PlanType
}

func daysLeft(end, now time.Time) int {
	remaining := end.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

func (e Entitlement) HasAnalytics() bool {
	return e.PlanType.AtLeast(PlanPremium) || e.IsTrialActive
}

func (e Entitlement) HasCustomDomain() bool {
	return e.PlanType.AtLeast(PlanPremium) || e.IsTrialActive
}

func (e Entitlement) HasCustomBranding() bool {
	return e.PlanType.AtLeast(PlanPremium) || e.IsTrialActive
}

// CanUseTemplate reports whether the template id is unlocked. A trial unlocks
// premium templates but not premium_plus ones.
func (e Entitlement) CanUseTemplate(id Template) bool {
	required, ok := id.RequiredPlan()
	if !ok {
		return false
	}
	switch required {
	case PlanFree:
		return true
	case PlanPremium:
		return e.PlanType.AtLeast(PlanPremium) || e.IsTrialActive
	default:
		return e.PlanType == PlanPremiumPlus
	}
}

// AllowedTemplates lists the templates CanUseTemplate accepts, in display order.
func (e Entitlement) AllowedTemplates() []Template {
	out := make([]Template, 0, len(AllTemplates))
	for _, t := range AllTemplates {
		if e.CanUseTemplate(t) {
			out = append(out, t)
		}
	}
	return out
}

// Features is the flattened view returned to the dashboard.
type Features struct {
	Analytics        bool       `json:"analytics"`
	CustomDomain     bool       `json:"custom_domain"`
	CustomBranding   bool       `json:"custom_branding"`
	AllowedTemplates []Template `json:"allowed_templates"`
}

func (e Entitlement) Features() Features {
	return Features{
		Analytics:        e.HasAnalytics(),
		CustomDomain:     e.HasCustomDomain(),
		CustomBranding:   e.HasCustomBranding(),
		AllowedTemplates: e.AllowedTemplates(),
	}
}
