package controller

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
	"github.com/tablemenu/menu-backend/internal/theme"
)

// SessionCookie groups one guest's events for session metrics.
const SessionCookie = "tm_sid"

type PublicMenuController struct {
	publicMenuService service.PublicMenuService
	renderer          *theme.Renderer
}

func NewPublicMenuController(publicMenuService service.PublicMenuService, renderer *theme.Renderer) *PublicMenuController {
	return &PublicMenuController{
		publicMenuService: publicMenuService,
		renderer:          renderer,
	}
}

type MenuEventRequest struct {
	EventType string `json:"event_type" binding:"required,oneof=item_view"`
	ItemID    uint   `json:"item_id" binding:"required"`
	SessionID string `json:"session_id" binding:"max=64"`
}

// guestSession returns the session cookie, issuing one when missing.
func guestSession(c *gin.Context) string {
	if sid, err := c.Cookie(SessionCookie); err == nil && sid != "" {
		return sid
	}
	sid := strings.ReplaceAll(uuid.New().String(), "-", "")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sid, 0, "/", "", false, false)
	return sid
}

func trackerURL(slug string) string {
	return "/api/v1/public/menu/" + slug + "/events"
}

// recordVisit logs a menu_view, or a qr_scan for ?src=qr.
func (ctrl *PublicMenuController) recordVisit(c *gin.Context, restaurant *model.Restaurant) {
	ctrl.publicMenuService.RecordVisit(
		restaurant.ID,
		c.Query("src"),
		guestSession(c),
		c.Request.UserAgent(),
		middleware.GetLocale(c),
	)
}

func (ctrl *PublicMenuController) render(c *gin.Context, menu *theme.Menu) {
	var buf bytes.Buffer
	if err := ctrl.renderer.Render(&buf, menu, middleware.GetLocale(c), trackerURL(menu.Slug)); err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to render menu", err, map[string]interface{}{
			"slug": menu.Slug,
		})
		c.String(http.StatusInternalServerError, "menu unavailable")
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (ctrl *PublicMenuController) respondMenuError(c *gin.Context, err error, html bool) {
	if errors.Is(err, service.ErrMenuNotFound) {
		if html {
			c.String(http.StatusNotFound, theme.Label(middleware.GetLocale(c), "not_found"))
			return
		}
		apperrors.NotFound(c, apperrors.RestaurantNotFound, "Menu not found")
		return
	}
	respondUnexpected(c, err, "load menu")
}

// ShowMenu renders the public menu page
// GET /menu/:slug
func (ctrl *PublicMenuController) ShowMenu(c *gin.Context) {
	menu, restaurant, err := ctrl.publicMenuService.BySlug(c.Param("slug"))
	if err != nil {
		ctrl.respondMenuError(c, err, true)
		return
	}
	ctrl.recordVisit(c, restaurant)
	ctrl.render(c, menu)
}

// ShowDomainMenu renders the menu whose custom domain matches the Host header
// GET / on a custom domain
func (ctrl *PublicMenuController) ShowDomainMenu(c *gin.Context) {
	menu, restaurant, err := ctrl.publicMenuService.ByDomain(c.Request.Host)
	if err != nil {
		ctrl.respondMenuError(c, err, true)
		return
	}
	ctrl.recordVisit(c, restaurant)
	ctrl.render(c, menu)
}

// GetMenu returns the public menu as JSON with display prices
// GET /api/v1/public/menu/:slug
func (ctrl *PublicMenuController) GetMenu(c *gin.Context) {
	menu, restaurant, err := ctrl.publicMenuService.BySlug(c.Param("slug"))
	if err != nil {
		ctrl.respondMenuError(c, err, false)
		return
	}
	ctrl.recordVisit(c, restaurant)
	c.JSON(http.StatusOK, gin.H{"menu": menu})
}

// RecordEvent stores an item view. Beacons post JSON as text/plain.
// POST /api/v1/public/menu/:slug/events
func (ctrl *PublicMenuController) RecordEvent(c *gin.Context) {
	var req MenuEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = guestSession(c)
	}

	err := ctrl.publicMenuService.RecordItemView(c.Param("slug"), req.ItemID, sessionID, c.Request.UserAgent(), middleware.GetLocale(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMenuNotFound):
			apperrors.NotFound(c, apperrors.RestaurantNotFound, "Menu not found")
		case errors.Is(err, service.ErrEventItemNotOnMenu):
			apperrors.NotFound(c, apperrors.MenuItemNotFound, "Menu item not found")
		case errors.Is(err, service.ErrInvalidEventType):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid event type")
		default:
			respondUnexpected(c, err, "record menu event")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
