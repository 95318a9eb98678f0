package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
	ws "github.com/tablemenu/menu-backend/internal/websocket"
	"github.com/tablemenu/menu-backend/pkg/logger"
)

type AnalyticsController struct {
	analyticsService service.AnalyticsService
	hub              *ws.Hub
	refreshInterval  time.Duration
	upgrader         websocket.Upgrader
}

// NewAnalyticsController accepts websocket upgrades only from allowedOrigins
// ("*" allows any). Requests without an Origin header are allowed.
func NewAnalyticsController(
	analyticsService service.AnalyticsService,
	hub *ws.Hub,
	refreshInterval time.Duration,
	allowedOrigins []string,
) *AnalyticsController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &AnalyticsController{
		analyticsService: analyticsService,
		hub:              hub,
		refreshInterval:  refreshInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

func respondAnalyticsError(c *gin.Context, err error) {
	if respondOwnershipError(c, err) {
		return
	}
	if errors.Is(err, service.ErrAnalyticsLocked) {
		apperrors.FeatureLocked(c, apperrors.PlanFeatureLocked, "Analytics require a premium plan or an active trial")
		return
	}
	respondUnexpected(c, err, "get analytics")
}

// GetAnalytics returns the snapshot for the last N days (default 30)
// GET /api/v1/restaurants/:id/analytics?days=N
func (ctrl *AnalyticsController) GetAnalytics(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	snapshot, err := ctrl.analyticsService.Snapshot(c.Request.Context(), userID, restaurantID, queryInt(c, "days", 0))
	if err != nil {
		respondAnalyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// LiveAnalytics streams the snapshot over a websocket: once on connect, every
// refresh interval and after every menu change. The token may be passed as ?token=.
// GET /api/v1/restaurants/:id/analytics/live?days=N
func (ctrl *AnalyticsController) LiveAnalytics(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	days := queryInt(c, "days", 0)

	// authorize before the upgrade so failures are plain HTTP errors
	first, err := ctrl.analyticsService.Snapshot(c.Request.Context(), userID, restaurantID, days)
	if err != nil {
		respondAnalyticsError(c, err)
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, conn, restaurantID, userID)
	ctrl.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	log.Info("Live analytics connected", map[string]interface{}{
		"restaurant_id": restaurantID,
	})

	push := func(snapshot *service.AnalyticsSnapshot) {
		if err := client.Enqueue(ws.Event{
			Type:         ws.EventAnalytics,
			RestaurantID: restaurantID,
			Data:         snapshot,
			At:           snapshot.GeneratedAt,
		}); err != nil {
			log.Error("Failed to queue analytics snapshot", err)
		}
	}
	push(first)

	go ctrl.stream(client, days, push)
}

// stream recomputes the snapshot until the client goes away. Every refresh
// re-checks ownership and the plan; losing either ends the stream.
func (ctrl *AnalyticsController) stream(client *ws.Client, days int, push func(*service.AnalyticsSnapshot)) {
	ticker := time.NewTicker(ctrl.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.Done():
			return
		case <-ticker.C:
		case <-client.Refresh():
		}

		ctx, cancel := context.WithTimeout(context.Background(), ctrl.refreshInterval)
		snapshot, err := ctrl.analyticsService.Snapshot(ctx, client.UserID, client.RestaurantID, days)
		cancel()
		if err != nil {
			if code, lost := accessLost(err); lost {
				ctrl.endStream(client, code)
				return
			}
			logger.Warn("Live analytics refresh failed", map[string]interface{}{
				"restaurant_id": client.RestaurantID,
				"error":         err.Error(),
			})
			continue
		}
		push(snapshot)
	}
}

func accessLost(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrAnalyticsLocked):
		return apperrors.PlanFeatureLocked, true
	case errors.Is(err, service.ErrRestaurantNotFound):
		return apperrors.RestaurantNotFound, true
	}
	return "", false
}

func (ctrl *AnalyticsController) endStream(client *ws.Client, code string) {
	logger.Info("Live analytics access revoked", map[string]interface{}{
		"restaurant_id": client.RestaurantID,
		"user_id":       client.UserID,
		"reason":        code,
	})
	if err := client.Enqueue(ws.Event{
		Type:         ws.EventAccessRevoked,
		RestaurantID: client.RestaurantID,
		Data:         gin.H{"error": code},
		At:           time.Now(),
	}); err != nil {
		logger.Error("Failed to queue access revoked event", err)
	}
	ctrl.hub.Unregister(client)
}
