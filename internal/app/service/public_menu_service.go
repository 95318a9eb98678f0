package service

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/tablemenu/menu-backend/internal/theme"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrMenuNotFound = errors.New("menu not found")

// Visit sources for public menu hits.
const (
	SourceQR = "qr"
)

type PublicMenuService interface {
	BySlug(slug string) (*theme.Menu, *model.Restaurant, error)
	// ByDomain resolves a request host (port ignored) to the restaurant that claimed it.
	ByDomain(host string) (*theme.Menu, *model.Restaurant, error)
	// RecordVisit logs failures and never returns them.
	RecordVisit(restaurantID uint, source, sessionID, userAgent, language string)
	RecordItemView(slug string, itemID uint, sessionID, userAgent, language string) error
}

type publicMenuService struct {
	restaurantRepo repository.RestaurantRepository
	categoryRepo   repository.CategoryRepository
	itemRepo       repository.MenuItemRepository
	subscriptions  SubscriptionService
	analytics      AnalyticsService
}

func NewPublicMenuService(
	restaurantRepo repository.RestaurantRepository,
	categoryRepo repository.CategoryRepository,
	itemRepo repository.MenuItemRepository,
	subscriptions SubscriptionService,
	analytics AnalyticsService,
) PublicMenuService {
	return &publicMenuService{
		restaurantRepo: restaurantRepo,
		categoryRepo:   categoryRepo,
		itemRepo:       itemRepo,
		subscriptions:  subscriptions,
		analytics:      analytics,
	}
}

func (s *publicMenuService) BySlug(slug string) (*theme.Menu, *model.Restaurant, error) {
	restaurant, err := s.restaurantRepo.FindBySlug(strings.ToLower(strings.TrimSpace(slug)))
	return s.build(restaurant, err)
}

func (s *publicMenuService) ByDomain(host string) (*theme.Menu, *model.Restaurant, error) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = normalizeDomain(host)
	if host == "" {
		return nil, nil, ErrMenuNotFound
	}
	restaurant, err := s.restaurantRepo.FindByCustomDomain(host)
	return s.build(restaurant, err)
}

func (s *publicMenuService) build(restaurant *model.Restaurant, err error) (*theme.Menu, *model.Restaurant, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMenuNotFound
		}
		return nil, nil, err
	}
	if !restaurant.IsActive {
		return nil, nil, ErrMenuNotFound
	}

	categories, err := s.categoryRepo.ListByRestaurant(restaurant.ID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.itemRepo.ListByRestaurant(restaurant.ID, repository.ItemFilter{})
	if err != nil {
		return nil, nil, err
	}

	ent, err := s.subscriptions.Entitlement(restaurant.UserID)
	if err != nil {
		return nil, nil, err
	}

	menu := BuildMenu(restaurant, categories, items, ent, time.Now())
	return menu, restaurant, nil
}

// BuildMenu assembles the guest view. A template the owner's plan no longer
// covers falls back to classic, and customization only applies with custom
// branding.
func BuildMenu(r *model.Restaurant, categories []model.MenuCategory, items []model.MenuItem, ent entitlement.Entitlement, now time.Time) *theme.Menu {
	template := r.MenuTemplate
	if !ent.CanUseTemplate(template) {
		template = entitlement.TemplateClassic
	}
	customization := model.Customization{}
	if ent.HasCustomBranding() {
		customization = r.Customization.Data()
	}

	menu := &theme.Menu{
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		LogoURL:     r.LogoURL,
		Address:     r.Address,
		City:        r.City,
		Phone:       r.Phone,
		Website:     r.Website,
		Currency:    r.Currency,
		Template:    template,
		Style:       theme.Lookup(template).Apply(customization),
		Specials:    []theme.Item{},
		Sections:    []theme.Section{},
	}

	sectionIndex := make(map[uint]int, len(categories))
	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		sectionIndex[c.ID] = len(menu.Sections)
		menu.Sections = append(menu.Sections, theme.Section{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Items:       []theme.Item{},
		})
	}

	var loose []theme.Item
	for i := range items {
		item := guestItem(&items[i], now)
		if item.IsDailySpecial && item.IsAvailable {
			menu.Specials = append(menu.Specials, item)
		}
		if items[i].CategoryID == nil {
			loose = append(loose, item)
			continue
		}
		// items of hidden categories stay hidden
		if idx, ok := sectionIndex[*items[i].CategoryID]; ok {
			menu.Sections[idx].Items = append(menu.Sections[idx].Items, item)
		}
	}
	if len(loose) > 0 {
		menu.Sections = append(menu.Sections, theme.Section{Items: loose})
	}

	return menu
}

func guestItem(m *model.MenuItem, now time.Time) theme.Item {
	quote := m.Quote(now)
	return theme.Item{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Price:          quote.DisplayPrice,
		OriginalPrice:  quote.OriginalPrice,
		SavingsPercent: quote.SavingsPercent,
		IsVegetarian:   m.IsVegetarian,
		IsVegan:        m.IsVegan,
		IsGlutenFree:   m.IsGlutenFree,
		IsAvailable:    m.IsAvailable,
		IsDailySpecial: m.IsDailySpecial,
		Allergens:      []string(m.Allergens),
		ImageURL:       m.ImageURL,
	}
}

func (s *publicMenuService) RecordVisit(restaurantID uint, source, sessionID, userAgent, language string) {
	eventType := model.EventMenuView
	if source == SourceQR {
		eventType = model.EventQRScan
	}
	err := s.analytics.Record(EventInput{
		RestaurantID: restaurantID,
		EventType:    eventType,
		SessionID:    sessionID,
		UserAgent:    userAgent,
		Language:     language,
	})
	if err != nil {
		logger.Warn("Failed to record menu visit", map[string]interface{}{
			"restaurant_id": restaurantID,
			"error":         err.Error(),
		})
	}
}

func (s *publicMenuService) RecordItemView(slug string, itemID uint, sessionID, userAgent, language string) error {
	restaurant, err := s.restaurantRepo.FindBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMenuNotFound
		}
		return err
	}
	if !restaurant.IsActive {
		return ErrMenuNotFound
	}
	return s.analytics.Record(EventInput{
		RestaurantID: restaurant.ID,
		EventType:    model.EventItemView,
		ItemID:       &itemID,
		SessionID:    sessionID,
		UserAgent:    userAgent,
		Language:     language,
	})
}
