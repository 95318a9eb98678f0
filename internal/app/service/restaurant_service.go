package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRestaurantNotFound     = errors.New("restaurant not found")
	ErrRestaurantNameRequired = errors.New("restaurant name is required")
	ErrInvalidSlug            = errors.New("slug must contain only lowercase letters, digits and single hyphens")
	ErrSlugTaken              = errors.New("this URL slug is already taken")
	ErrRestaurantLimitReached = errors.New("restaurant limit reached for your plan")
	ErrInvalidTemplate        = errors.New("unknown menu template")
	ErrTemplateNotAllowed     = errors.New("template not available on your plan")
	ErrCustomBrandingLocked   = errors.New("custom branding requires a premium plan")
	ErrInvalidCustomization   = errors.New("invalid customization")
	ErrCustomDomainLocked     = errors.New("custom domains require a premium plan")
	ErrInvalidDomain          = errors.New("invalid domain name")
	ErrDomainTaken            = errors.New("domain is already in use")
	ErrDomainChangeLimit      = errors.New("domain can only be changed twice per month")
)

var validate = validator.New()

// PartialCreateError reports a restaurant that was persisted without its
// default categories. Restaurant is always set.
type PartialCreateError struct {
	Restaurant *model.Restaurant
	Cause      error
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("Restaurant created but failed to create default categories: %v. Please add categories manually.", e.Cause)
}

func (e *PartialCreateError) Unwrap() error {
	return e.Cause
}

type CreateRestaurantInput struct {
	Name         string
	Slug         string
	Description  string
	Address      string
	City         string
	PostalCode   string
	Country      string
	Phone        string
	Email        string
	Website      string
	LogoURL      string
	Currency     string
	MenuTemplate entitlement.Template
}

// UpdateRestaurantInput carries optional fields; nil leaves the stored value.
type UpdateRestaurantInput struct {
	Name        *string
	Slug        *string
	Description *string
	Address     *string
	City        *string
	PostalCode  *string
	Country     *string
	Phone       *string
	Email       *string
	Website     *string
	LogoURL     *string
	Currency    *string
	IsActive    *bool
}

type DomainResult struct {
	Restaurant  *model.Restaurant `json:"restaurant"`
	ChangesLeft int               `json:"changes_left"`
}

type RestaurantService interface {
	ListMine(userID uint) ([]model.Restaurant, error)
	// Get returns the restaurant if userID owns it, ErrRestaurantNotFound otherwise.
	Get(userID, id uint) (*model.Restaurant, error)
	// Create may return a *PartialCreateError together with the created restaurant.
	Create(userID uint, input CreateRestaurantInput) (*model.Restaurant, error)
	Update(userID, id uint, input UpdateRestaurantInput) (*model.Restaurant, error)
	Delete(userID, id uint) error
	SetTemplate(userID, id uint, template entitlement.Template) (*model.Restaurant, error)
	SetCustomization(userID, id uint, customization model.Customization) (*model.Restaurant, error)
	SetCustomDomain(userID, id uint, domain string) (*DomainResult, error)
	Activity(userID, id uint, page, pageSize int) ([]model.ActivityLog, int64, error)
}

type restaurantService struct {
	restaurantRepo repository.RestaurantRepository
	categoryRepo   repository.CategoryRepository
	subRepo        repository.SubscriptionRepository
	activityRepo   repository.ActivityRepository
	subscriptions  SubscriptionService
	notifier       ChangeNotifier
}

func NewRestaurantService(
	restaurantRepo repository.RestaurantRepository,
	categoryRepo repository.CategoryRepository,
	subRepo repository.SubscriptionRepository,
	activityRepo repository.ActivityRepository,
	subscriptions SubscriptionService,
	notifier ChangeNotifier,
) RestaurantService {
	return &restaurantService{
		restaurantRepo: restaurantRepo,
		categoryRepo:   categoryRepo,
		subRepo:        subRepo,
		activityRepo:   activityRepo,
		subscriptions:  subscriptions,
		notifier:       notifier,
	}
}

func (s *restaurantService) ListMine(userID uint) ([]model.Restaurant, error) {
	return s.restaurantRepo.ListByUser(userID)
}

func (s *restaurantService) Get(userID, id uint) (*model.Restaurant, error) {
	restaurant, err := s.restaurantRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	if restaurant.UserID != userID {
		logger.Warn("Restaurant access denied", map[string]interface{}{
			"restaurant_id": id,
			"user_id":       userID,
		})
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

// resolveSlug returns the normalized slug for raw, derived from name when raw is empty.
func resolveSlug(raw, name string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(raw))
	if slug == "" {
		slug = util.Slugify(name)
	}
	if !util.IsValidSlug(slug) {
		return "", ErrInvalidSlug
	}
	return slug, nil
}

func (s *restaurantService) ensureSlugFree(slug string, excludeID uint) error {
	taken, err := s.restaurantRepo.SlugExists(slug, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}
	return nil
}

func (s *restaurantService) Create(userID uint, input CreateRestaurantInput) (*model.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	logger.Info("Creating restaurant", map[string]interface{}{
		"user_id": userID,
		"name":    name,
	})

	if name == "" {
		return nil, ErrRestaurantNameRequired
	}
	slug, err := resolveSlug(input.Slug, name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(slug, 0); err != nil {
		logger.Warn("Restaurant creation rejected", map[string]interface{}{
			"user_id": userID,
			"slug":    slug,
			"reason":  err.Error(),
		})
		return nil, err
	}

	ent, err := s.subscriptions.Entitlement(userID)
	if err != nil {
		return nil, err
	}
	count, err := s.restaurantRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	if int(count) >= ent.MaxRestaurants {
		logger.Warn("Restaurant limit reached", map[string]interface{}{
			"user_id": userID,
			"count":   count,
			"limit":   ent.MaxRestaurants,
		})
		return nil, ErrRestaurantLimitReached
	}

	template := input.MenuTemplate
	if template == "" {
		template = entitlement.TemplateClassic
	}
	if !template.IsValid() {
		return nil, ErrInvalidTemplate
	}
	if !ent.CanUseTemplate(template) {
		return nil, ErrTemplateNotAllowed
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "EUR"
	}

	restaurant := &model.Restaurant{
		UserID:       userID,
		Name:         name,
		Slug:         slug,
		Description:  input.Description,
		Address:      input.Address,
		City:         input.City,
		PostalCode:   input.PostalCode,
		Country:      strings.ToUpper(input.Country),
		Phone:        input.Phone,
		Email:        input.Email,
		Website:      input.Website,
		LogoURL:      input.LogoURL,
		Currency:     currency,
		MenuTemplate: template,
		IsActive:     true,
	}
	if err := s.restaurantRepo.Create(restaurant); err != nil {
		return nil, err
	}

	categories := make([]model.MenuCategory, len(model.DefaultCategoryNames))
	for i, categoryName := range model.DefaultCategoryNames {
		categories[i] = model.MenuCategory{
			RestaurantID: restaurant.ID,
			Name:         categoryName,
			DisplayOrder: i + 1,
			IsActive:     true,
		}
	}
	var partial *PartialCreateError
	if err := s.categoryRepo.CreateBatch(categories); err != nil {
		logger.Error("Default categories not created", err, map[string]interface{}{
			"restaurant_id": restaurant.ID,
		})
		partial = &PartialCreateError{Restaurant: restaurant, Cause: err}
	} else {
		restaurant.Categories = categories
	}

	if _, err := s.subRepo.RefreshRestaurantCount(userID); err != nil {
		logger.Warn("Restaurant count not refreshed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	recordActivity(s.activityRepo, restaurant.ID, userID, model.ActivityRestaurantCreated,
		fmt.Sprintf("Created restaurant %q", restaurant.Name), map[string]interface{}{
			"slug":     restaurant.Slug,
			"template": string(restaurant.MenuTemplate),
		})

	logger.Info("Restaurant created", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"user_id":       userID,
		"slug":          slug,
		"partial":       partial != nil,
	})

	if partial != nil {
		return restaurant, partial
	}
	return restaurant, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (s *restaurantService) Update(userID, id uint, input UpdateRestaurantInput) (*model.Restaurant, error) {
	restaurant, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, 4)
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrRestaurantNameRequired
		}
		restaurant.Name = name
		changed = append(changed, "name")
	}
	if input.Slug != nil {
		slug, err := resolveSlug(*input.Slug, restaurant.Name)
		if err != nil {
			return nil, err
		}
		if slug != restaurant.Slug {
			if err := s.ensureSlugFree(slug, restaurant.ID); err != nil {
				return nil, err
			}
			restaurant.Slug = slug
			changed = append(changed, "slug")
		}
	}

	applyString(&restaurant.Description, input.Description)
	applyString(&restaurant.Address, input.Address)
	applyString(&restaurant.City, input.City)
	applyString(&restaurant.PostalCode, input.PostalCode)
	applyString(&restaurant.Phone, input.Phone)
	applyString(&restaurant.Email, input.Email)
	applyString(&restaurant.Website, input.Website)
	applyString(&restaurant.LogoURL, input.LogoURL)
	if input.Country != nil {
		restaurant.Country = strings.ToUpper(strings.TrimSpace(*input.Country))
	}
	if input.Currency != nil {
		restaurant.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.IsActive != nil && *input.IsActive != restaurant.IsActive {
		restaurant.IsActive = *input.IsActive
		changed = append(changed, "is_active")
	}

	if err := s.restaurantRepo.Update(restaurant); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, restaurant.ID, userID, model.ActivityRestaurantUpdated,
		"Updated restaurant details", map[string]interface{}{"changed": changed})
	notifyChange(s.notifier, restaurant.ID, "restaurant", "updated", restaurant.ID)

	return restaurant, nil
}

func (s *restaurantService) Delete(userID, id uint) error {
	restaurant, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	if err := s.restaurantRepo.Delete(restaurant.ID); err != nil {
		return err
	}
	if _, err := s.subRepo.RefreshRestaurantCount(userID); err != nil {
		logger.Warn("Restaurant count not refreshed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	notifyChange(s.notifier, restaurant.ID, "restaurant", "deleted", restaurant.ID)

	logger.Info("Restaurant deleted", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"user_id":       userID,
	})
	return nil
}

func (s *restaurantService) SetTemplate(userID, id uint, template entitlement.Template) (*model.Restaurant, error) {
	if !template.IsValid() {
		return nil, ErrInvalidTemplate
	}
	restaurant, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	ent, err := s.subscriptions.Entitlement(userID)
	if err != nil {
		return nil, err
	}
	if !ent.CanUseTemplate(template) {
		logger.Warn("Template not allowed on plan", map[string]interface{}{
			"restaurant_id": id,
			"template":      template,
			"plan_type":     ent.PlanType,
		})
		return nil, ErrTemplateNotAllowed
	}

	previous := restaurant.MenuTemplate
	restaurant.MenuTemplate = template
	if err := s.restaurantRepo.Update(restaurant); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, restaurant.ID, userID, model.ActivityTemplateChanged,
		fmt.Sprintf("Switched template to %s", template), map[string]interface{}{
			"from": string(previous),
			"to":   string(template),
		})
	notifyChange(s.notifier, restaurant.ID, "restaurant", "updated", restaurant.ID)
	return restaurant, nil
}

func (s *restaurantService) SetCustomization(userID, id uint, customization model.Customization) (*model.Restaurant, error) {
	restaurant, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	ent, err := s.subscriptions.Entitlement(userID)
	if err != nil {
		return nil, err
	}
	// clearing is always allowed so downgraded owners can reset
	if !customization.IsEmpty() && !ent.HasCustomBranding() {
		return nil, ErrCustomBrandingLocked
	}
	if err := validate.Struct(customization); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCustomization, err)
	}

	restaurant.Customization = datatypes.NewJSONType(customization)
	if err := s.restaurantRepo.Update(restaurant); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, restaurant.ID, userID, model.ActivityCustomizationSaved,
		"Updated colors and fonts", nil)
	notifyChange(s.notifier, restaurant.ID, "restaurant", "updated", restaurant.ID)
	return restaurant, nil
}

func normalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

func (s *restaurantService) SetCustomDomain(userID, id uint, domain string) (*DomainResult, error) {
	restaurant, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	ent, err := s.subscriptions.Entitlement(userID)
	if err != nil {
		return nil, err
	}
	if !ent.HasCustomDomain() {
		return nil, ErrCustomDomainLocked
	}

	domain = normalizeDomain(domain)
	current := ""
	if restaurant.CustomDomain != nil {
		current = *restaurant.CustomDomain
	}
	now := time.Now()
	if domain == current {
		return &DomainResult{
			Restaurant:  restaurant,
			ChangesLeft: entitlement.DomainChangesLeft(restaurant.DomainChangesCount, restaurant.LastDomainChange, now),
		}, nil
	}

	if domain != "" {
		if err := validate.Var(domain, "fqdn"); err != nil {
			return nil, ErrInvalidDomain
		}
		taken, err := s.restaurantRepo.DomainTaken(domain, restaurant.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDomainTaken
		}
	}

	if !entitlement.CanChangeDomain(restaurant.DomainChangesCount, restaurant.LastDomainChange, now) {
		logger.Warn("Domain change limit reached", map[string]interface{}{
			"restaurant_id": restaurant.ID,
			"count":         restaurant.DomainChangesCount,
		})
		return nil, ErrDomainChangeLimit
	}

	count, at := entitlement.RecordChange(restaurant.DomainChangesCount, restaurant.LastDomainChange, now)
	restaurant.DomainChangesCount = count
	restaurant.LastDomainChange = &at
	if domain == "" {
		restaurant.CustomDomain = nil
	} else {
		restaurant.CustomDomain = &domain
	}

	if err := s.restaurantRepo.Update(restaurant); err != nil {
		return nil, err
	}

	recordActivity(s.activityRepo, restaurant.ID, userID, model.ActivityDomainChanged,
		"Changed custom domain", map[string]interface{}{
			"from": current,
			"to":   domain,
		})
	logger.Info("Custom domain changed", map[string]interface{}{
		"restaurant_id": restaurant.ID,
		"domain":        domain,
		"changes":       count,
	})

	return &DomainResult{
		Restaurant:  restaurant,
		ChangesLeft: entitlement.DomainChangesLeft(count, &at, now),
	}, nil
}

func (s *restaurantService) Activity(userID, id uint, page, pageSize int) ([]model.ActivityLog, int64, error) {
	if _, err := s.Get(userID, id); err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.activityRepo.ListByRestaurant(id, pageSize, (page-1)*pageSize)
}
