package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/service"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

type RestaurantController struct {
	restaurantService service.RestaurantService
}

func NewRestaurantController(restaurantService service.RestaurantService) *RestaurantController {
	return &RestaurantController{restaurantService: restaurantService}
}

type CreateRestaurantRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Slug         string `json:"slug" binding:"omitempty,max=60,slug"`
	Description  string `json:"description" binding:"max=2000"`
	Address      string `json:"address" binding:"max=200"`
	City         string `json:"city" binding:"max=100"`
	PostalCode   string `json:"postal_code" binding:"max=20"`
	Country      string `json:"country" binding:"omitempty,len=2"`
	Phone        string `json:"phone" binding:"max=30"`
	Email        string `json:"email" binding:"omitempty,email"`
	Website      string `json:"website" binding:"omitempty,url"`
	LogoURL      string `json:"logo_url" binding:"omitempty,url"`
	Currency     string `json:"currency" binding:"omitempty,len=3"`
	MenuTemplate string `json:"menu_template" binding:"omitempty,menu_template"`
}

type UpdateRestaurantRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" binding:"omitempty,max=60,slug"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Address     *string `json:"address" binding:"omitempty,max=200"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	PostalCode  *string `json:"postal_code" binding:"omitempty,max=20"`
	Country     *string `json:"country" binding:"omitempty,len=2"`
	Phone       *string `json:"phone" binding:"omitempty,max=30"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Website     *string `json:"website" binding:"omitempty,url"`
	LogoURL     *string `json:"logo_url" binding:"omitempty,url"`
	Currency    *string `json:"currency" binding:"omitempty,len=3"`
	IsActive    *bool   `json:"is_active"`
}

type SetTemplateRequest struct {
	MenuTemplate string `json:"menu_template" binding:"required,menu_template"`
}

type SetDomainRequest struct {
	// empty removes the custom domain
	Domain string `json:"domain" binding:"max=253"`
}

// AdminURL is where the dashboard shows a restaurant.
func AdminURL(id uint) string {
	return fmt.Sprintf("/dashboard/restaurants/%d", id)
}

// respondRestaurantError maps restaurant service errors. Unknown errors become 500.
func respondRestaurantError(c *gin.Context, err error, op string) {
	if respondOwnershipError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrRestaurantNameRequired):
		apperrors.RespondWithValidationError(c, map[string]string{"name": "is required"})
	case errors.Is(err, service.ErrInvalidSlug):
		apperrors.RespondWithValidationError(c, map[string]string{
			"slug": "may only contain lowercase letters, digits and single hyphens",
		})
	case errors.Is(err, service.ErrSlugTaken):
		apperrors.BadRequest(c, apperrors.RestaurantSlugTaken, "This menu URL is already taken")
	case errors.Is(err, service.ErrRestaurantLimitReached):
		apperrors.FeatureLocked(c, apperrors.RestaurantLimitReached, "Your plan does not allow more restaurants. Upgrade to add another")
	case errors.Is(err, service.ErrInvalidTemplate):
		apperrors.BadRequest(c, apperrors.RestaurantInvalidTheme, "Unknown menu template")
	case errors.Is(err, service.ErrTemplateNotAllowed):
		apperrors.FeatureLocked(c, apperrors.PlanTemplateLocked, "This template is not included in your plan")
	case errors.Is(err, service.ErrCustomBrandingLocked):
		apperrors.FeatureLocked(c, apperrors.PlanFeatureLocked, "Custom branding requires a premium plan")
	case errors.Is(err, service.ErrInvalidCustomization):
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, err.Error())
	case errors.Is(err, service.ErrCustomDomainLocked):
		apperrors.FeatureLocked(c, apperrors.PlanFeatureLocked, "Custom domains require a premium plan")
	case errors.Is(err, service.ErrInvalidDomain):
		apperrors.BadRequest(c, apperrors.RestaurantInvalidDomain, "Invalid domain name")
	case errors.Is(err, service.ErrDomainTaken):
		apperrors.Conflict(c, apperrors.RestaurantDomainTaken, "This domain is already used by another menu")
	case errors.Is(err, service.ErrDomainChangeLimit):
		apperrors.TooManyRequests(c, apperrors.DomainChangeLimit, "The domain can only be changed twice per month")
	default:
		respondUnexpected(c, err, op)
	}
}

// ListRestaurants returns the caller's restaurants
// GET /api/v1/restaurants
func (ctrl *RestaurantController) ListRestaurants(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	restaurants, err := ctrl.restaurantService.ListMine(userID)
	if err != nil {
		respondUnexpected(c, err, "list restaurants")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"count":       len(restaurants),
	})
}

// GetRestaurant returns one owned restaurant
// GET /api/v1/restaurants/:id
func (ctrl *RestaurantController) GetRestaurant(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	restaurant, err := ctrl.restaurantService.Get(userID, id)
	if err != nil {
		respondRestaurantError(c, err, "get restaurant")
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// CreateRestaurant creates a restaurant with its default categories.
// A failure after the restaurant row is written answers 207.
// POST /api/v1/restaurants
func (ctrl *RestaurantController) CreateRestaurant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid restaurant request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	restaurant, err := ctrl.restaurantService.Create(userID, service.CreateRestaurantInput{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		Email:        req.Email,
		Website:      req.Website,
		LogoURL:      req.LogoURL,
		Currency:     req.Currency,
		MenuTemplate: entitlement.Template(req.MenuTemplate),
	})
	var partial *service.PartialCreateError
	if errors.As(err, &partial) {
		log.Warn("Restaurant created without default categories", map[string]interface{}{
			"restaurant_id": partial.Restaurant.ID,
		})
		c.JSON(http.StatusMultiStatus, gin.H{
			"error":      apperrors.RestaurantPartialCreate,
			"message":    partial.Error(),
			"restaurant": partial.Restaurant,
			"admin_url":  AdminURL(partial.Restaurant.ID),
		})
		return
	}
	if err != nil {
		respondRestaurantError(c, err, "create restaurant")
		return
	}

	log.Info("Restaurant created", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"slug":          restaurant.Slug,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant created successfully",
		"restaurant": restaurant,
		"admin_url":  AdminURL(restaurant.ID),
	})
}

// UpdateRestaurant changes details; omitted fields are kept
// PUT /api/v1/restaurants/:id
func (ctrl *RestaurantController) UpdateRestaurant(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	restaurant, err := ctrl.restaurantService.Update(userID, id, service.UpdateRestaurantInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		LogoURL:     req.LogoURL,
		Currency:    req.Currency,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondRestaurantError(c, err, "update restaurant")
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// DeleteRestaurant soft-deletes a restaurant
// DELETE /api/v1/restaurants/:id
func (ctrl *RestaurantController) DeleteRestaurant(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.restaurantService.Delete(userID, id); err != nil {
		respondRestaurantError(c, err, "delete restaurant")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

// SetTemplate switches the public menu theme
// PUT /api/v1/restaurants/:id/template
func (ctrl *RestaurantController) SetTemplate(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	restaurant, err := ctrl.restaurantService.SetTemplate(userID, id, entitlement.Template(req.MenuTemplate))
	if err != nil {
		respondRestaurantError(c, err, "set template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// SetCustomization stores colors and fonts. An empty body clears them.
// PUT /api/v1/restaurants/:id/customization
func (ctrl *RestaurantController) SetCustomization(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.Customization
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	restaurant, err := ctrl.restaurantService.SetCustomization(userID, id, req)
	if err != nil {
		respondRestaurantError(c, err, "set customization")
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// SetDomain claims or clears a custom domain
// PUT /api/v1/restaurants/:id/domain
func (ctrl *RestaurantController) SetDomain(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	result, err := ctrl.restaurantService.SetCustomDomain(userID, id, req.Domain)
	if err != nil {
		respondRestaurantError(c, err, "set custom domain")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetActivity pages through the restaurant's activity log, newest first
// GET /api/v1/restaurants/:id/activity?page=&page_size=
func (ctrl *RestaurantController) GetActivity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)
	entries, total, err := ctrl.restaurantService.Activity(userID, id, page, pageSize)
	if err != nil {
		respondRestaurantError(c, err, "list activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": entries,
		"total":    total,
		"page":     page,
	})
}
