package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/pricing"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrMenuItemNameRequired = errors.New("menu item name is required")
	ErrInvalidDiscount      = errors.New("invalid discount")
	ErrInvalidPrice         = errors.New("invalid price")
)

// MenuItemInput describes a new item. Price is the undiscounted base price.
type MenuItemInput struct {
	CategoryID         *uint
	Name               string
	Description        string
	Price              float64
	DiscountPercentage int
	DiscountActive     bool
	DiscountStart      *time.Time
	DiscountEnd        *time.Time
	IsVegetarian       bool
	IsVegan            bool
	IsGlutenFree       bool
	IsAvailable        *bool // nil means available
	IsDailySpecial     bool
	Allergens          []string
	ImageURL           string
	DisplayOrder       int
}

// MenuItemUpdate carries optional fields; nil leaves the stored value.
// Price is the base price.
type MenuItemUpdate struct {
	CategoryID       *uint
	ClearCategory    bool
	Name             *string
	Description      *string
	Price            *float64
	IsVegetarian     *bool
	IsVegan          *bool
	IsGlutenFree     *bool
	IsAvailable      *bool
	IsDailySpecial   *bool
	Allergens        []string
	ReplaceAllergens bool
	ImageURL         *string
	DisplayOrder     *int
}

type DiscountInput struct {
	Percentage int
	Active     bool
	Start      *time.Time
	End        *time.Time
}

// MenuItemView is an item plus the price a guest would see right now.
type MenuItemView struct {
	model.MenuItem
	Display pricing.Quote `json:"display"`
}

type MenuItemService interface {
	List(userID, restaurantID uint, filter repository.ItemFilter) ([]MenuItemView, error)
	Get(userID, itemID uint) (*MenuItemView, error)
	Create(userID, restaurantID uint, input MenuItemInput) (*MenuItemView, error)
	Update(userID, itemID uint, input MenuItemUpdate) (*MenuItemView, error)
	Delete(userID, itemID uint) error
	SetDiscount(userID, itemID uint, input DiscountInput) (*MenuItemView, error)
	SetAvailability(userID, itemID uint, available bool) (*MenuItemView, error)
	SetDailySpecial(userID, itemID uint, special bool) (*MenuItemView, error)
}

type menuItemService struct {
	itemRepo     repository.MenuItemRepository
	categoryRepo repository.CategoryRepository
	activityRepo repository.ActivityRepository
	restaurants  RestaurantService
	notifier     ChangeNotifier
}

func NewMenuItemService(
	itemRepo repository.MenuItemRepository,
	categoryRepo repository.CategoryRepository,
	activityRepo repository.ActivityRepository,
	restaurants RestaurantService,
	notifier ChangeNotifier,
) MenuItemService {
	return &menuItemService{
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		activityRepo: activityRepo,
		restaurants:  restaurants,
		notifier:     notifier,
	}
}

func viewOf(item *model.MenuItem, now time.Time) *MenuItemView {
	return &MenuItemView{MenuItem: *item, Display: item.Quote(now)}
}

func cleanAllergens(in []string) model.StringList {
	out := make(model.StringList, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// applyPricing rewrites the stored price pair from a base price and discount.
func applyPricing(item *model.MenuItem, base float64, d DiscountInput) error {
	window := pricing.Window{Start: d.Start, End: d.End}
	if err := window.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	if err := pricing.ValidatePrice(base); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	price, original, err := pricing.Normalize(base, d.Percentage, d.Active)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}

	item.Price = price
	item.OriginalPrice = original
	item.DiscountActive = original != nil
	if item.DiscountActive {
		item.DiscountPercentage = d.Percentage
		item.DiscountStartDate = d.Start
		item.DiscountEndDate = d.End
	} else {
		item.DiscountPercentage = 0
		item.DiscountStartDate = nil
		item.DiscountEndDate = nil
	}
	return nil
}

func (s *menuItemService) checkCategory(restaurantID uint, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	category, err := s.categoryRepo.FindByID(*categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	if category.RestaurantID != restaurantID {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *menuItemService) owned(userID, itemID uint) (*model.MenuItem, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	if _, err := s.restaurants.Get(userID, item.RestaurantID); err != nil {
		if errors.Is(err, ErrRestaurantNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *menuItemService) List(userID, restaurantID uint, filter repository.ItemFilter) ([]MenuItemView, error) {
	if _, err := s.restaurants.Get(userID, restaurantID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.ListByRestaurant(restaurantID, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]MenuItemView, len(items))
	for i := range items {
		views[i] = *viewOf(&items[i], now)
	}
	return views, nil
}

func (s *menuItemService) Get(userID, itemID uint) (*MenuItemView, error) {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return nil, err
	}
	return viewOf(item, time.Now()), nil
}

func (s *menuItemService) Create(userID, restaurantID uint, input MenuItemInput) (*MenuItemView, error) {
	if _, err := s.restaurants.Get(userID, restaurantID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrMenuItemNameRequired
	}
	if err := s.checkCategory(restaurantID, input.CategoryID); err != nil {
		return nil, err
	}

	item := &model.MenuItem{
		RestaurantID:   restaurantID,
		CategoryID:     input.CategoryID,
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		IsVegetarian:   input.IsVegetarian || input.IsVegan,
		IsVegan:        input.IsVegan,
		IsGlutenFree:   input.IsGlutenFree,
		IsAvailable:    true,
		IsDailySpecial: input.IsDailySpecial,
		Allergens:      cleanAllergens(input.Allergens),
		ImageURL:       strings.TrimSpace(input.ImageURL),
		DisplayOrder:   input.DisplayOrder,
	}
	if err := applyPricing(item, input.Price, DiscountInput{
		Percentage: input.DiscountPercentage,
		Active:     input.DiscountActive,
		Start:      input.DiscountStart,
		End:        input.DiscountEnd,
	}); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(item); err != nil {
		return nil, err
	}
	// is_available defaults to true in the schema, so false needs a second write
	if input.IsAvailable != nil && !*input.IsAvailable {
		item.IsAvailable = false
		if err := s.itemRepo.Update(item); err != nil {
			return nil, err
		}
	}

	recordActivity(s.activityRepo, restaurantID, userID, model.ActivityItemCreated,
		fmt.Sprintf("Added %q", name), map[string]interface{}{"item_id": item.ID, "price": item.Price})
	notifyChange(s.notifier, restaurantID, "items", "created", item.ID)

	logger.Info("Menu item created", map[string]interface{}{
		"restaurant_id": restaurantID,
		"item_id":       item.ID,
	})
	return viewOf(item, time.Now()), nil
}

func (s *menuItemService) Update(userID, itemID uint, input MenuItemUpdate) (*MenuItemView, error) {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return nil, err
	}

	if input.ClearCategory {
		item.CategoryID = nil
	} else if input.CategoryID != nil {
		if err := s.checkCategory(item.RestaurantID, input.CategoryID); err != nil {
			return nil, err
		}
		item.CategoryID = input.CategoryID
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrMenuItemNameRequired
		}
		item.Name = name
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsVegetarian != nil {
		item.IsVegetarian = *input.IsVegetarian
	}
	if input.IsVegan != nil {
		item.IsVegan = *input.IsVegan
	}
	if item.IsVegan {
		item.IsVegetarian = true
	}
	if input.IsGlutenFree != nil {
		item.IsGlutenFree = *input.IsGlutenFree
	}
	if input.IsAvailable != nil {
		item.IsAvailable = *input.IsAvailable
	}
	if input.IsDailySpecial != nil {
		item.IsDailySpecial = *input.IsDailySpecial
	}
	if input.ReplaceAllergens {
		item.Allergens = cleanAllergens(input.Allergens)
	}
	if input.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.DisplayOrder != nil {
		item.DisplayOrder = *input.DisplayOrder
	}

	// a new base price re-derives the discounted price with the current discount
	base := item.BasePrice()
	if input.Price != nil {
		base = *input.Price
	}
	if err := applyPricing(item, base, DiscountInput{
		Percentage: item.DiscountPercentage,
		Active:     item.DiscountActive,
		Start:      item.DiscountStartDate,
		End:        item.DiscountEndDate,
	}); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Update(item); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, item.RestaurantID, userID, model.ActivityItemUpdated,
		fmt.Sprintf("Updated %q", item.Name), map[string]interface{}{"item_id": item.ID})
	notifyChange(s.notifier, item.RestaurantID, "items", "updated", item.ID)
	return viewOf(item, time.Now()), nil
}

func (s *menuItemService) Delete(userID, itemID uint) error {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return err
	}
	if err := s.itemRepo.Delete(item.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMenuItemNotFound
		}
		return err
	}

	recordActivity(s.activityRepo, item.RestaurantID, userID, model.ActivityItemDeleted,
		fmt.Sprintf("Deleted %q", item.Name), map[string]interface{}{"item_id": item.ID})
	notifyChange(s.notifier, item.RestaurantID, "items", "deleted", item.ID)
	return nil
}

func (s *menuItemService) SetDiscount(userID, itemID uint, input DiscountInput) (*MenuItemView, error) {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := applyPricing(item, item.BasePrice(), input); err != nil {
		logger.Warn("Discount rejected", map[string]interface{}{
			"item_id":    itemID,
			"percentage": input.Percentage,
			"error":      err.Error(),
		})
		return nil, err
	}
	if err := s.itemRepo.Update(item); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, item.RestaurantID, userID, model.ActivityItemDiscountChanged,
		fmt.Sprintf("Changed discount on %q", item.Name), map[string]interface{}{
			"item_id":    item.ID,
			"percentage": item.DiscountPercentage,
			"active":     item.DiscountActive,
		})
	notifyChange(s.notifier, item.RestaurantID, "items", "updated", item.ID)
	return viewOf(item, time.Now()), nil
}

func (s *menuItemService) SetAvailability(userID, itemID uint, available bool) (*MenuItemView, error) {
	return s.toggle(userID, itemID, func(item *model.MenuItem) { item.IsAvailable = available })
}

func (s *menuItemService) SetDailySpecial(userID, itemID uint, special bool) (*MenuItemView, error) {
	return s.toggle(userID, itemID, func(item *model.MenuItem) { item.IsDailySpecial = special })
}

func (s *menuItemService) toggle(userID, itemID uint, apply func(*model.MenuItem)) (*MenuItemView, error) {
	item, err := s.owned(userID, itemID)
	if err != nil {
		return nil, err
	}
	apply(item)
	if err := s.itemRepo.Update(item); err != nil {
		return nil, err
	}
	notifyChange(s.notifier, item.RestaurantID, "items", "updated", item.ID)
	return viewOf(item, time.Now()), nil
}
