package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

type MenuItemController struct {
	menuItemService service.MenuItemService
}

func NewMenuItemController(menuItemService service.MenuItemService) *MenuItemController {
	return &MenuItemController{menuItemService: menuItemService}
}

type CreateMenuItemRequest struct {
	CategoryID         *uint      `json:"category_id"`
	Name               string     `json:"name" binding:"required,max=150"`
	Description        string     `json:"description" binding:"max=1000"`
	Price              *float64   `json:"price" binding:"required,gte=0"`
	DiscountPercentage int        `json:"discount_percentage" binding:"gte=0,lte=99"`
	DiscountActive     bool       `json:"discount_active"`
	DiscountStart      *time.Time `json:"discount_start_date"`
	DiscountEnd        *time.Time `json:"discount_end_date"`
	IsVegetarian       bool       `json:"is_vegetarian"`
	IsVegan            bool       `json:"is_vegan"`
	IsGlutenFree       bool       `json:"is_gluten_free"`
	IsAvailable        *bool      `json:"is_available"`
	IsDailySpecial     bool       `json:"is_daily_special"`
	Allergens          []string   `json:"allergens" binding:"max=20,dive,max=40"`
	ImageURL           string     `json:"image_url" binding:"omitempty,url"`
	DisplayOrder       int        `json:"display_order" binding:"gte=0"`
}

// UpdateMenuItemRequest leaves omitted fields untouched. allergens replaces
// the list when present; clear_category moves the item to uncategorized.
type UpdateMenuItemRequest struct {
	CategoryID     *uint    `json:"category_id"`
	ClearCategory  bool     `json:"clear_category"`
	Name           *string  `json:"name" binding:"omitempty,min=1,max=150"`
	Description    *string  `json:"description" binding:"omitempty,max=1000"`
	Price          *float64 `json:"price" binding:"omitempty,gte=0"`
	IsVegetarian   *bool    `json:"is_vegetarian"`
	IsVegan        *bool    `json:"is_vegan"`
	IsGlutenFree   *bool    `json:"is_gluten_free"`
	IsAvailable    *bool    `json:"is_available"`
	IsDailySpecial *bool    `json:"is_daily_special"`
	Allergens      []string `json:"allergens" binding:"omitempty,max=20,dive,max=40"`
	ImageURL       *string  `json:"image_url" binding:"omitempty,url"`
	DisplayOrder   *int     `json:"display_order" binding:"omitempty,gte=0"`
}

type DiscountRequest struct {
	DiscountPercentage int        `json:"discount_percentage" binding:"gte=0,lte=99"`
	DiscountActive     bool       `json:"discount_active"`
	Start              *time.Time `json:"start"`
	End                *time.Time `json:"end"`
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

type DailySpecialRequest struct {
	IsDailySpecial *bool `json:"is_daily_special" binding:"required"`
}

func respondMenuItemError(c *gin.Context, err error, op string) {
	if respondOwnershipError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrMenuItemNameRequired):
		apperrors.RespondWithValidationError(c, map[string]string{"name": "is required"})
	case errors.Is(err, service.ErrInvalidPrice):
		apperrors.RespondWithValidationError(c, map[string]string{"price": "must be between 0 and 99999999.99"})
	case errors.Is(err, service.ErrInvalidDiscount):
		apperrors.BadRequest(c, apperrors.MenuInvalidDiscount, err.Error())
	default:
		respondUnexpected(c, err, op)
	}
}

// ListMenuItems returns items with their current display price.
// Filters: category_id (or "none" for uncategorized), available=true, special=true.
// GET /api/v1/restaurants/:id/items
func (ctrl *MenuItemController) ListMenuItems(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var filter repository.ItemFilter
	if raw := c.Query("category_id"); raw != "" {
		if raw == "none" {
			filter.Uncategorized = true
		} else {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid category_id")
				return
			}
			categoryID := uint(id)
			filter.CategoryID = &categoryID
		}
	}
	filter.AvailableOnly = c.Query("available") == "true"
	filter.SpecialsOnly = c.Query("special") == "true"

	items, err := ctrl.menuItemService.List(userID, restaurantID, filter)
	if err != nil {
		respondMenuItemError(c, err, "list menu items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// GetMenuItem
// GET /api/v1/items/:id
func (ctrl *MenuItemController) GetMenuItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := ctrl.menuItemService.Get(userID, id)
	if err != nil {
		respondMenuItemError(c, err, "get menu item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// CreateMenuItem adds an item. price is the undiscounted base price.
// POST /api/v1/restaurants/:id/items
func (ctrl *MenuItemController) CreateMenuItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid menu item request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.menuItemService.Create(userID, restaurantID, service.MenuItemInput{
		CategoryID:         req.CategoryID,
		Name:               req.Name,
		Description:        req.Description,
		Price:              *req.Price,
		DiscountPercentage: req.DiscountPercentage,
		DiscountActive:     req.DiscountActive,
		DiscountStart:      req.DiscountStart,
		DiscountEnd:        req.DiscountEnd,
		IsVegetarian:       req.IsVegetarian,
		IsVegan:            req.IsVegan,
		IsGlutenFree:       req.IsGlutenFree,
		IsAvailable:        req.IsAvailable,
		IsDailySpecial:     req.IsDailySpecial,
		Allergens:          req.Allergens,
		ImageURL:           req.ImageURL,
		DisplayOrder:       req.DisplayOrder,
	})
	if err != nil {
		respondMenuItemError(c, err, "create menu item")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateMenuItem
// PUT /api/v1/items/:id
func (ctrl *MenuItemController) UpdateMenuItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.menuItemService.Update(userID, id, service.MenuItemUpdate{
		CategoryID:       req.CategoryID,
		ClearCategory:    req.ClearCategory,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		IsVegetarian:     req.IsVegetarian,
		IsVegan:          req.IsVegan,
		IsGlutenFree:     req.IsGlutenFree,
		IsAvailable:      req.IsAvailable,
		IsDailySpecial:   req.IsDailySpecial,
		Allergens:        req.Allergens,
		ReplaceAllergens: req.Allergens != nil,
		ImageURL:         req.ImageURL,
		DisplayOrder:     req.DisplayOrder,
	})
	if err != nil {
		respondMenuItemError(c, err, "update menu item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteMenuItem soft-deletes an item
// DELETE /api/v1/items/:id
func (ctrl *MenuItemController) DeleteMenuItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.menuItemService.Delete(userID, id); err != nil {
		respondMenuItemError(c, err, "delete menu item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// SetDiscount sets or clears the discount and rewrites the stored price pair
// PUT /api/v1/items/:id/discount
func (ctrl *MenuItemController) SetDiscount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.menuItemService.SetDiscount(userID, id, service.DiscountInput{
		Percentage: req.DiscountPercentage,
		Active:     req.DiscountActive,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		respondMenuItemError(c, err, "set discount")
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// SetAvailability
// PUT /api/v1/items/:id/availability
func (ctrl *MenuItemController) SetAvailability(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.menuItemService.SetAvailability(userID, id, *req.IsAvailable)
	if err != nil {
		respondMenuItemError(c, err, "set availability")
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

// SetDailySpecial
// PUT /api/v1/items/:id/special
func (ctrl *MenuItemController) SetDailySpecial(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req DailySpecialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	item, err := ctrl.menuItemService.SetDailySpecial(userID, id, *req.IsDailySpecial)
	if err != nil {
		respondMenuItemError(c, err, "set daily special")
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}
