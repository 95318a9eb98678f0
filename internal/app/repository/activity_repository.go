package repository

import (
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

// ActivityRepository is append-only: there is no update or delete.
type ActivityRepository interface {
	Create(entry *model.ActivityLog) error
	ListByRestaurant(restaurantID uint, limit, offset int) ([]model.ActivityLog, int64, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(entry *model.ActivityLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to write activity log", err, map[string]interface{}{
			"restaurant_id": entry.RestaurantID,
			"action":        entry.ActionType,
		})
		return err
	}
	return nil
}

func (r *activityRepository) ListByRestaurant(restaurantID uint, limit, offset int) ([]model.ActivityLog, int64, error) {
	var total int64
	if err := r.db.Model(&model.ActivityLog{}).Where("restaurant_id = ?", restaurantID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.ActivityLog
	err := r.db.Where("restaurant_id = ?", restaurantID).Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		logger.Error("Failed to list activity log", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, 0, err
	}
	return entries, total, nil
}
