package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

type SubscriptionController struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionController(subscriptionService service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptionService: subscriptionService}
}

type ChangePlanRequest struct {
	PlanType string `json:"plan_type" binding:"required,oneof=free premium premium_plus"`
}

// ListPlans returns the plan catalog
// GET /api/v1/plans
func (ctrl *SubscriptionController) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": ctrl.subscriptionService.Plans()})
}

// GetSubscription returns the resolved entitlement and restaurant usage
// GET /api/v1/subscription
func (ctrl *SubscriptionController) GetSubscription(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	overview, err := ctrl.subscriptionService.GetOverview(userID)
	if err != nil {
		respondUnexpected(c, err, "get subscription")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Upgrade switches to another plan for one billing period
// POST /api/v1/subscription/upgrade
func (ctrl *SubscriptionController) Upgrade(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	overview, err := ctrl.subscriptionService.ChangePlan(userID, entitlement.PlanType(req.PlanType))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlanType):
			apperrors.BadRequest(c, apperrors.PlanInvalidType, "Unknown plan type")
		case errors.Is(err, service.ErrDowngradeBlocked):
			apperrors.Conflict(c, apperrors.PlanDowngradeBlocked, "Delete restaurants before switching to a plan with a lower limit")
		case errors.Is(err, service.ErrSubscriptionMissing):
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Subscription not found")
		default:
			respondUnexpected(c, err, "change plan")
		}
		return
	}

	log.Info("Plan changed", map[string]interface{}{
		"user_id":   userID,
		"plan_type": req.PlanType,
	})
	c.JSON(http.StatusOK, overview)
}

// Cancel stops renewal; paid features stay until the period ends
// POST /api/v1/subscription/cancel
func (ctrl *SubscriptionController) Cancel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	overview, err := ctrl.subscriptionService.Cancel(userID)
	if err != nil {
		if errors.Is(err, service.ErrNothingToCancel) {
			apperrors.Conflict(c, apperrors.ResourceConflict, "No active paid subscription to cancel")
			return
		}
		respondUnexpected(c, err, "cancel subscription")
		return
	}

	c.JSON(http.StatusOK, overview)
}
