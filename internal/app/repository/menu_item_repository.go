package repository

import (
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

// ItemFilter narrows ListByRestaurant. Zero values mean "any".
type ItemFilter struct {
	CategoryID    *uint
	Uncategorized bool
	AvailableOnly bool
	SpecialsOnly  bool
}

type MenuItemRepository interface {
	Create(item *model.MenuItem) error
	FindByID(id uint) (*model.MenuItem, error)
	FindByIDs(restaurantID uint, ids []uint) ([]model.MenuItem, error)
	ListByRestaurant(restaurantID uint, filter ItemFilter) ([]model.MenuItem, error)
	Update(item *model.MenuItem) error
	Delete(id uint) error
}

type menuItemRepository struct {
	db *gorm.DB
}

func NewMenuItemRepository(db *gorm.DB) MenuItemRepository {
	return &menuItemRepository{db: db}
}

func (r *menuItemRepository) Create(item *model.MenuItem) error {
	logger.Debug("Creating menu item in database", map[string]interface{}{
		"restaurant_id": item.RestaurantID,
		"name":          item.Name,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create menu item in database", err, map[string]interface{}{
			"restaurant_id": item.RestaurantID,
		})
		return err
	}
	return nil
}

func (r *menuItemRepository) FindByID(id uint) (*model.MenuItem, error) {
	var item model.MenuItem
	if err := r.db.First(&item, id).Error; err != nil {
		logLookupError("Failed to find menu item in database", err, map[string]interface{}{
			"item_id": id,
		})
		return nil, err
	}
	return &item, nil
}

func (r *menuItemRepository) FindByIDs(restaurantID uint, ids []uint) ([]model.MenuItem, error) {
	var items []model.MenuItem
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.Unscoped().Where("restaurant_id = ? AND id IN ?", restaurantID, ids).Find(&items).Error
	return items, err
}

func (r *menuItemRepository) ListByRestaurant(restaurantID uint, filter ItemFilter) ([]model.MenuItem, error) {
	q := r.db.Where("restaurant_id = ?", restaurantID)
	switch {
	case filter.CategoryID != nil:
		q = q.Where("category_id = ?", *filter.CategoryID)
	case filter.Uncategorized:
		q = q.Where("category_id IS NULL")
	}
	if filter.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	if filter.SpecialsOnly {
		q = q.Where("is_daily_special = ?", true)
	}

	var items []model.MenuItem
	if err := q.Order("display_order ASC").Order("id ASC").Find(&items).Error; err != nil {
		logger.Error("Failed to list menu items", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return items, nil
}

func (r *menuItemRepository) Update(item *model.MenuItem) error {
	logger.Debug("Updating menu item in database", map[string]interface{}{
		"item_id": item.ID,
	})

	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update menu item in database", err, map[string]interface{}{
			"item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *menuItemRepository) Delete(id uint) error {
	res := r.db.Delete(&model.MenuItem{}, id)
	if res.Error != nil {
		logger.Error("Failed to delete menu item from database", res.Error, map[string]interface{}{
			"item_id": id,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
