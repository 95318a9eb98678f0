package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"gorm.io/datatypes"
)

func uintPtr(v uint) *uint { return &v }

func TestBuildMenu(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	original := 10.0

	restaurant := &model.Restaurant{
		Slug:          "brasserie",
		Name:          "Brasserie",
		Currency:      "EUR",
		MenuTemplate:  entitlement.TemplateLuxury,
		Customization: datatypes.NewJSONType(model.Customization{PrimaryColor: "#123456"}),
	}
	categories := []model.MenuCategory{
		{ID: 1, Name: "Starters", IsActive: true},
		{ID: 2, Name: "Hidden", IsActive: false},
		{ID: 3, Name: "Mains", IsActive: true},
	}
	items := []model.MenuItem{
		{ID: 10, CategoryID: uintPtr(1), Name: "Soup", Price: 8, OriginalPrice: &original, DiscountActive: true, DiscountPercentage: 20, IsAvailable: true, IsDailySpecial: true},
		{ID: 11, CategoryID: uintPtr(2), Name: "Secret", Price: 5, IsAvailable: true},
		{ID: 12, CategoryID: uintPtr(3), Name: "Steak", Price: 29, IsAvailable: false, IsDailySpecial: true},
		{ID: 13, Name: "Bread", Price: 2, IsAvailable: true},
	}

	t.Run("plan covers template and branding", func(t *testing.T) {
		ent := entitlement.Entitlement{PlanType: entitlement.PlanPremium}
		menu := BuildMenu(restaurant, categories, items, ent, now)

		assert.Equal(t, entitlement.TemplateLuxury, menu.Template)
		assert.Equal(t, "#123456", menu.Style.Primary)

		require.Len(t, menu.Sections, 3)
		assert.Equal(t, "Starters", menu.Sections[0].Name)
		assert.Equal(t, "Mains", menu.Sections[1].Name)
		assert.Equal(t, uint(0), menu.Sections[2].ID)
		assert.Equal(t, "Bread", menu.Sections[2].Items[0].Name)

		soup := menu.Sections[0].Items[0]
		assert.Equal(t, 8.0, soup.Price)
		require.NotNil(t, soup.OriginalPrice)
		assert.Equal(t, 10.0, *soup.OriginalPrice)
		assert.Equal(t, 20, soup.SavingsPercent)

		// unavailable specials are not promoted
		require.Len(t, menu.Specials, 1)
		assert.Equal(t, "Soup", menu.Specials[0].Name)
	})

	t.Run("downgraded owner falls back to classic", func(t *testing.T) {
		ent := entitlement.Entitlement{PlanType: entitlement.PlanFree}
		menu := BuildMenu(restaurant, categories, items, ent, now)

		assert.Equal(t, entitlement.TemplateClassic, menu.Template)
		assert.Equal(t, "#b45309", menu.Style.Primary)
	})

	t.Run("empty menu", func(t *testing.T) {
		menu := BuildMenu(restaurant, nil, nil, entitlement.Entitlement{}, now)
		assert.True(t, menu.IsEmpty())
		assert.NotNil(t, menu.Sections)
		assert.NotNil(t, menu.Specials)
	})
}

func TestPublicMenuService(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	restaurant := env.createRestaurant(t, owner.ID, "Gasthaus Zur Post")

	item, err := env.items.Create(owner.ID, restaurant.ID, MenuItemInput{Name: "Schnitzel", Price: 16.5})
	require.NoError(t, err)

	menu, found, err := env.publicMenu.BySlug(" Gasthaus-Zur-Post ")
	require.NoError(t, err)
	assert.Equal(t, restaurant.ID, found.ID)
	assert.Equal(t, "Gasthaus Zur Post", menu.Name)
	assert.False(t, menu.IsEmpty())

	_, _, err = env.publicMenu.BySlug("nope")
	assert.ErrorIs(t, err, ErrMenuNotFound)

	t.Run("custom domain", func(t *testing.T) {
		_, err := env.restaurants.SetCustomDomain(owner.ID, restaurant.ID, "menu.zurpost.de")
		require.NoError(t, err)

		_, found, err := env.publicMenu.ByDomain("MENU.zurpost.de:443")
		require.NoError(t, err)
		assert.Equal(t, restaurant.ID, found.ID)

		_, _, err = env.publicMenu.ByDomain("unknown.example.com")
		assert.ErrorIs(t, err, ErrMenuNotFound)
	})

	t.Run("visits and item views", func(t *testing.T) {
		env.publicMenu.RecordVisit(restaurant.ID, SourceQR, "guest-1", "test-agent", "de")
		env.publicMenu.RecordVisit(restaurant.ID, "", "guest-2", "test-agent", "en")
		require.NoError(t, env.publicMenu.RecordItemView(restaurant.Slug, item.ID, "guest-1", "test-agent", "de"))
		assert.ErrorIs(t, env.publicMenu.RecordItemView(restaurant.Slug, 9999, "guest-1", "", ""), ErrEventItemNotOnMenu)

		snapshot, err := env.analytics.Compute(context.Background(), restaurant.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), snapshot.QRScans)
		assert.Equal(t, int64(1), snapshot.MenuViews)
		assert.Equal(t, int64(1), snapshot.ItemViews)
	})

	t.Run("inactive restaurant is hidden", func(t *testing.T) {
		inactive := false
		_, err := env.restaurants.Update(owner.ID, restaurant.ID, UpdateRestaurantInput{IsActive: &inactive})
		require.NoError(t, err)

		_, _, err = env.publicMenu.BySlug(restaurant.Slug)
		assert.ErrorIs(t, err, ErrMenuNotFound)
		assert.ErrorIs(t, env.publicMenu.RecordItemView(restaurant.Slug, item.ID, "", "", ""), ErrMenuNotFound)
	})
}
