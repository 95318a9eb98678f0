package repository

import (
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

type RestaurantRepository interface {
	Create(restaurant *model.Restaurant) error
	FindByID(id uint) (*model.Restaurant, error)
	FindBySlug(slug string) (*model.Restaurant, error)
	FindByCustomDomain(domain string) (*model.Restaurant, error)
	ListByUser(userID uint) ([]model.Restaurant, error)
	CountByUser(userID uint) (int64, error)
	// SlugExists also sees soft-deleted rows, which still hold the unique index.
	SlugExists(slug string, excludeID uint) (bool, error)
	DomainTaken(domain string, excludeID uint) (bool, error)
	Update(restaurant *model.Restaurant) error
	Delete(id uint) error
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(restaurant *model.Restaurant) error {
	logger.Debug("Creating restaurant in database", map[string]interface{}{
		"user_id": restaurant.UserID,
		"slug":    restaurant.Slug,
	})

	if err := r.db.Create(restaurant).Error; err != nil {
		logger.Error("Failed to create restaurant in database", err, map[string]interface{}{
			"user_id": restaurant.UserID,
			"slug":    restaurant.Slug,
		})
		return err
	}

	logger.Debug("Restaurant created in database", map[string]interface{}{
		"restaurant_id": restaurant.ID,
	})
	return nil
}

func (r *restaurantRepository) FindByID(id uint) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	if err := r.db.First(&restaurant, id).Error; err != nil {
		logLookupError("Failed to find restaurant by ID in database", err, map[string]interface{}{
			"restaurant_id": id,
		})
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) FindBySlug(slug string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	if err := r.db.Where("slug = ?", slug).First(&restaurant).Error; err != nil {
		logLookupError("Failed to find restaurant by slug in database", err, map[string]interface{}{
			"slug": slug,
		})
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) FindByCustomDomain(domain string) (*model.Restaurant, error) {
	var restaurant model.Restaurant
	if err := r.db.Where("custom_domain = ?", domain).First(&restaurant).Error; err != nil {
		logLookupError("Failed to find restaurant by domain in database", err, map[string]interface{}{
			"domain": domain,
		})
		return nil, err
	}
	return &restaurant, nil
}

func (r *restaurantRepository) ListByUser(userID uint) ([]model.Restaurant, error) {
	logger.Debug("Listing restaurants for user", map[string]interface{}{
		"user_id": userID,
	})

	var restaurants []model.Restaurant
	if err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&restaurants).Error; err != nil {
		logger.Error("Failed to list restaurants", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Restaurant{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *restaurantRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Unscoped().Model(&model.Restaurant{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		logger.Error("Failed to check slug availability", err, map[string]interface{}{
			"slug": slug,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *restaurantRepository) DomainTaken(domain string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.Restaurant{}).
		Where("custom_domain = ? AND id <> ?", domain, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *restaurantRepository) Update(restaurant *model.Restaurant) error {
	logger.Debug("Updating restaurant in database", map[string]interface{}{
		"restaurant_id": restaurant.ID,
	})

	if err := r.db.Save(restaurant).Error; err != nil {
		logger.Error("Failed to update restaurant in database", err, map[string]interface{}{
			"restaurant_id": restaurant.ID,
		})
		return err
	}
	return nil
}

// Delete soft-deletes the restaurant and releases its custom domain.
func (r *restaurantRepository) Delete(id uint) error {
	logger.Debug("Deleting restaurant from database", map[string]interface{}{
		"restaurant_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Restaurant{}).Where("id = ?", id).Update("custom_domain", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Restaurant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		logLookupError("Failed to delete restaurant from database", err, map[string]interface{}{
			"restaurant_id": id,
		})
		return err
	}
	return nil
}
