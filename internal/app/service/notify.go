package service

import (
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/websocket"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/datatypes"
)

// ChangeNotifier pushes menu mutations to live dashboards. *websocket.Hub satisfies it.
type ChangeNotifier interface {
	Publish(restaurantID uint, event websocket.Event)
}

func notifyChange(n ChangeNotifier, restaurantID uint, resource, action string, resourceID uint) {
	if n == nil {
		return
	}
	n.Publish(restaurantID, websocket.Event{
		Type:       websocket.EventMenuChanged,
		Resource:   resource,
		Action:     action,
		ResourceID: resourceID,
	})
}

// recordActivity appends to the activity log; failures are logged and swallowed.
func recordActivity(repo repository.ActivityRepository, restaurantID, userID uint, action model.ActivityAction, description string, metadata map[string]interface{}) {
	if repo == nil {
		return
	}
	entry := &model.ActivityLog{
		RestaurantID: restaurantID,
		UserID:       userID,
		ActionType:   action,
		Description:  description,
	}
	if len(metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(metadata)
	}
	if err := repo.Create(entry); err != nil {
		logger.Warn("Failed to write activity log", map[string]interface{}{
			"restaurant_id": restaurantID,
			"action":        action,
			"error":         err.Error(),
		})
	}
}
