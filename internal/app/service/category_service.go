package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameRequired = errors.New("category name is required")
)

type CategoryInput struct {
	Name         string
	Description  string
	DisplayOrder *int // nil appends after the last category
}

type CategoryUpdate struct {
	Name         *string
	Description  *string
	DisplayOrder *int
	IsActive     *bool
}

type CategoryService interface {
	List(userID, restaurantID uint) ([]model.MenuCategory, error)
	Create(userID, restaurantID uint, input CategoryInput) (*model.MenuCategory, error)
	Update(userID, categoryID uint, input CategoryUpdate) (*model.MenuCategory, error)
	// Delete removes the category; its items become uncategorized.
	Delete(userID, categoryID uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	activityRepo repository.ActivityRepository
	restaurants  RestaurantService
	notifier     ChangeNotifier
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	activityRepo repository.ActivityRepository,
	restaurants RestaurantService,
	notifier ChangeNotifier,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		activityRepo: activityRepo,
		restaurants:  restaurants,
		notifier:     notifier,
	}
}

func (s *categoryService) List(userID, restaurantID uint) ([]model.MenuCategory, error) {
	if _, err := s.restaurants.Get(userID, restaurantID); err != nil {
		return nil, err
	}
	return s.categoryRepo.ListByRestaurant(restaurantID)
}

// owned loads a category and checks that userID owns its restaurant.
func (s *categoryService) owned(userID, categoryID uint) (*model.MenuCategory, error) {
	category, err := s.categoryRepo.FindByID(categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if _, err := s.restaurants.Get(userID, category.RestaurantID); err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Create(userID, restaurantID uint, input CategoryInput) (*model.MenuCategory, error) {
	if _, err := s.restaurants.Get(userID, restaurantID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	order := 0
	if input.DisplayOrder != nil {
		order = *input.DisplayOrder
	} else {
		next, err := s.categoryRepo.NextDisplayOrder(restaurantID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	category := &model.MenuCategory{
		RestaurantID: restaurantID,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		DisplayOrder: order,
		IsActive:     true,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, restaurantID, userID, model.ActivityCategoryCreated,
		fmt.Sprintf("Added category %q", name), map[string]interface{}{"category_id": category.ID})
	notifyChange(s.notifier, restaurantID, "categories", "created", category.ID)

	logger.Info("Category created", map[string]interface{}{
		"restaurant_id": restaurantID,
		"category_id":   category.ID,
	})
	return category, nil
}

func (s *categoryService) Update(userID, categoryID uint, input CategoryUpdate) (*model.MenuCategory, error) {
	category, err := s.owned(userID, categoryID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrCategoryNameRequired
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.DisplayOrder != nil {
		category.DisplayOrder = *input.DisplayOrder
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, category.RestaurantID, userID, model.ActivityCategoryUpdated,
		fmt.Sprintf("Updated category %q", category.Name), map[string]interface{}{"category_id": category.ID})
	notifyChange(s.notifier, category.RestaurantID, "categories", "updated", category.ID)
	return category, nil
}

func (s *categoryService) Delete(userID, categoryID uint) error {
	category, err := s.owned(userID, categoryID)
	if err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(category.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	recordActivity(s.activityRepo, category.RestaurantID, userID, model.ActivityCategoryDeleted,
		fmt.Sprintf("Deleted category %q", category.Name), map[string]interface{}{"category_id": category.ID})
	// items moved to uncategorized, so item lists are stale too
	notifyChange(s.notifier, category.RestaurantID, "categories", "deleted", category.ID)
	notifyChange(s.notifier, category.RestaurantID, "items", "updated", 0)

	logger.Info("Category deleted", map[string]interface{}{
		"restaurant_id": category.RestaurantID,
		"category_id":   category.ID,
	})
	return nil
}
