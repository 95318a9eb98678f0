package repository

import (
	"context"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

// ItemViewCount is one row of the top-items ranking.
type ItemViewCount struct {
	ItemID uint  `json:"item_id"`
	Views  int64 `json:"views"`
}

// AnalyticsRepository reads take a context because the dashboard runs them
// concurrently and cancels them together.
type AnalyticsRepository interface {
	Record(event *model.MenuAnalytics) error
	CountByType(ctx context.Context, restaurantID uint, since time.Time) (map[model.AnalyticsEventType]int64, error)
	TopItems(ctx context.Context, restaurantID uint, since time.Time, limit int) ([]ItemViewCount, error)
	// Events returns session_id, event_type and created_at for every event since, oldest first.
	Events(ctx context.Context, restaurantID uint, since time.Time) ([]model.MenuAnalytics, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Record(event *model.MenuAnalytics) error {
	if err := r.db.Create(event).Error; err != nil {
		logger.Error("Failed to record analytics event", err, map[string]interface{}{
			"restaurant_id": event.RestaurantID,
			"event_type":    event.EventType,
		})
		return err
	}
	return nil
}

func (r *analyticsRepository) CountByType(ctx context.Context, restaurantID uint, since time.Time) (map[model.AnalyticsEventType]int64, error) {
	var rows []struct {
		EventType model.AnalyticsEventType
		Total     int64
	}
	err := r.db.WithContext(ctx).Model(&model.MenuAnalytics{}).
		Select("event_type, COUNT(*) AS total").
		Where("restaurant_id = ? AND created_at >= ?", restaurantID, since).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count analytics events", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}

	counts := make(map[model.AnalyticsEventType]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Total
	}
	return counts, nil
}

func (r *analyticsRepository) TopItems(ctx context.Context, restaurantID uint, since time.Time, limit int) ([]ItemViewCount, error) {
	var rows []ItemViewCount
	err := r.db.WithContext(ctx).Model(&model.MenuAnalytics{}).
		Select("item_id, COUNT(*) AS views").
		Where("restaurant_id = ? AND event_type = ? AND item_id IS NOT NULL AND created_at >= ?",
			restaurantID, model.EventItemView, since).
		Group("item_id").
		Order("views DESC").Order("item_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to rank menu items", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepository) Events(ctx context.Context, restaurantID uint, since time.Time) ([]model.MenuAnalytics, error) {
	var events []model.MenuAnalytics
	err := r.db.WithContext(ctx).
		Select("id", "session_id", "event_type", "created_at").
		Where("restaurant_id = ? AND created_at >= ?", restaurantID, since).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		logger.Error("Failed to load analytics events", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return events, nil
}
