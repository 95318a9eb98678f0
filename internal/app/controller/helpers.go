package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

// parseIDParam reads a positive numeric path parameter and answers 400 otherwise.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func requireUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return 0, false
	}
	return userID, true
}

// queryInt returns def when the parameter is missing or not a number.
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// respondOwnershipError answers the errors every restaurant-scoped service shares.
// It returns false when err is not one of them.
func respondOwnershipError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrRestaurantNotFound):
		apperrors.NotFound(c, apperrors.RestaurantNotFound, "Restaurant not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
	case errors.Is(err, service.ErrMenuItemNotFound):
		apperrors.NotFound(c, apperrors.MenuItemNotFound, "Menu item not found")
	default:
		return false
	}
	return true
}

func respondUnexpected(c *gin.Context, err error, op string) {
	middleware.GetLoggerFromContext(c).Error("Request failed", err, map[string]interface{}{
		"operation": op,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, op)
}
