package repository

import (
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(category *model.MenuCategory) error
	// CreateBatch inserts all categories in one statement.
	CreateBatch(categories []model.MenuCategory) error
	FindByID(id uint) (*model.MenuCategory, error)
	FindByName(restaurantID uint, name string) (*model.MenuCategory, error)
	ListByRestaurant(restaurantID uint) ([]model.MenuCategory, error)
	NextDisplayOrder(restaurantID uint) (int, error)
	Update(category *model.MenuCategory) error
	// Delete removes the category; its items become uncategorized.
	Delete(id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(category *model.MenuCategory) error {
	logger.Debug("Creating menu category in database", map[string]interface{}{
		"restaurant_id": category.RestaurantID,
		"name":          category.Name,
	})

	if err := r.db.Create(category).Error; err != nil {
		logger.Error("Failed to create menu category in database", err, map[string]interface{}{
			"restaurant_id": category.RestaurantID,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) CreateBatch(categories []model.MenuCategory) error {
	if len(categories) == 0 {
		return nil
	}
	logger.Debug("Creating menu categories in database", map[string]interface{}{
		"restaurant_id": categories[0].RestaurantID,
		"count":         len(categories),
	})

	if err := r.db.Create(&categories).Error; err != nil {
		logger.Error("Failed to create menu categories in database", err, map[string]interface{}{
			"restaurant_id": categories[0].RestaurantID,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) FindByID(id uint) (*model.MenuCategory, error) {
	var category model.MenuCategory
	if err := r.db.First(&category, id).Error; err != nil {
		logLookupError("Failed to find menu category in database", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(restaurantID uint, name string) (*model.MenuCategory, error) {
	var category model.MenuCategory
	err := r.db.Where("restaurant_id = ? AND LOWER(name) = LOWER(?)", restaurantID, name).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByRestaurant(restaurantID uint) ([]model.MenuCategory, error) {
	var categories []model.MenuCategory
	err := r.db.Where("restaurant_id = ?", restaurantID).
		Order("display_order ASC").Order("id ASC").
		Find(&categories).Error
	if err != nil {
		logger.Error("Failed to list menu categories", err, map[string]interface{}{
			"restaurant_id": restaurantID,
		})
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) NextDisplayOrder(restaurantID uint) (int, error) {
	var max int64
	err := r.db.Model(&model.MenuCategory{}).
		Where("restaurant_id = ?", restaurantID).
		Select("COALESCE(MAX(display_order), 0)").
		Row().Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max) + 1, nil
}

func (r *categoryRepository) Update(category *model.MenuCategory) error {
	if err := r.db.Save(category).Error; err != nil {
		logger.Error("Failed to update menu category in database", err, map[string]interface{}{
			"category_id": category.ID,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) Delete(id uint) error {
	logger.Debug("Deleting menu category from database", map[string]interface{}{
		"category_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&model.MenuItem{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.MenuCategory{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logLookupError("Failed to delete menu category from database", err, map[string]interface{}{
			"category_id": id,
		})
		return err
	}
	return nil
}
