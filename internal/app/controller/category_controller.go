package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

type CreateCategoryRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Description  string `json:"description" binding:"max=500"`
	DisplayOrder *int   `json:"display_order" binding:"omitempty,gte=0"`
}

type UpdateCategoryRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
	DisplayOrder *int    `json:"display_order" binding:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active"`
}

func respondCategoryError(c *gin.Context, err error, op string) {
	if respondOwnershipError(c, err) {
		return
	}
	if errors.Is(err, service.ErrCategoryNameRequired) {
		apperrors.RespondWithValidationError(c, map[string]string{"name": "is required"})
		return
	}
	respondUnexpected(c, err, op)
}

// ListCategories returns categories in display order
// GET /api/v1/restaurants/:id/categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	categories, err := ctrl.categoryService.List(userID, restaurantID)
	if err != nil {
		respondCategoryError(c, err, "list categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory appends a category unless display_order is given
// POST /api/v1/restaurants/:id/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	category, err := ctrl.categoryService.Create(userID, restaurantID, service.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		respondCategoryError(c, err, "create category")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory
// PUT /api/v1/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	category, err := ctrl.categoryService.Update(userID, id, service.CategoryUpdate{
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondCategoryError(c, err, "update category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category; its items become uncategorized
// DELETE /api/v1/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.categoryService.Delete(userID, id); err != nil {
		respondCategoryError(c, err, "delete category")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
