package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/entitlement"
)

func TestRestaurantService_Create(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)

	restaurant, err := env.restaurants.Create(owner.ID, CreateRestaurantInput{Name: "Gasthaus Zur Post", City: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "gasthaus-zur-post", restaurant.Slug)
	assert.Equal(t, entitlement.TemplateClassic, restaurant.MenuTemplate)
	assert.Equal(t, "EUR", restaurant.Currency)
	assert.True(t, restaurant.IsActive)

	categories, err := env.categoryRepo.ListByRestaurant(restaurant.ID)
	require.NoError(t, err)
	require.Len(t, categories, 4)
	for i, category := range categories {
		assert.Equal(t, model.DefaultCategoryNames[i], category.Name)
		assert.Equal(t, i+1, category.DisplayOrder)
		assert.True(t, category.IsActive)
	}

	sub, err := env.subRepo.FindByUserID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.RestaurantCount)

	entries, total, err := env.restaurants.Activity(owner.ID, restaurant.ID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, model.ActivityRestaurantCreated, entries[0].ActionType)
}

func TestRestaurantService_Create_SlugTakenBeforeInsert(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	other := env.createOwner(t, "other@example.com", entitlement.PlanPremium, false)

	env.createRestaurant(t, owner.ID, "Gasthaus Zur Post")

	_, err := env.restaurants.Create(other.ID, CreateRestaurantInput{Name: "Gasthaus  zur Post!"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	count, err := env.restaurantRepo.CountByUser(other.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	var categories int64
	require.NoError(t, env.db.Model(&model.MenuCategory{}).Count(&categories).Error)
	assert.Equal(t, int64(4), categories)
}

func TestRestaurantService_Create_CategoryFailureKeepsRestaurant(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	restaurants := env.restaurantServiceWith(failingCategoryRepository{env.categoryRepo})

	restaurant, err := restaurants.Create(owner.ID, CreateRestaurantInput{Name: "Café Müller"})
	require.Error(t, err)
	require.NotNil(t, restaurant)

	var partial *PartialCreateError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, restaurant.ID, partial.Restaurant.ID)
	assert.Contains(t, err.Error(), "created")
	assert.Contains(t, err.Error(), "failed to create default categories")
	assert.Contains(t, err.Error(), "Please add categories manually.")

	stored, err := env.restaurantRepo.FindBySlug("cafe-muller")
	require.NoError(t, err)
	assert.Equal(t, restaurant.ID, stored.ID)

	categories, err := env.categoryRepo.ListByRestaurant(restaurant.ID)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestRestaurantService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	free := env.createOwner(t, "free@example.com", entitlement.PlanFree, false)
	trial := env.createOwner(t, "trial@example.com", entitlement.PlanFree, true)

	tests := []struct {
		name    string
		userID  uint
		input   CreateRestaurantInput
		wantErr error
	}{
		{name: "Missing name", userID: free.ID, input: CreateRestaurantInput{Name: "  "}, wantErr: ErrRestaurantNameRequired},
		{name: "Invalid slug", userID: free.ID, input: CreateRestaurantInput{Name: "X", Slug: "Bad Slug"}, wantErr: ErrInvalidSlug},
		{name: "Unknown template", userID: free.ID, input: CreateRestaurantInput{Name: "A", MenuTemplate: "bogus"}, wantErr: ErrInvalidTemplate},
		{name: "Premium template on free", userID: free.ID, input: CreateRestaurantInput{Name: "B", MenuTemplate: entitlement.TemplateModern}, wantErr: ErrTemplateNotAllowed},
		{name: "Premium template on trial", userID: trial.ID, input: CreateRestaurantInput{Name: "C", MenuTemplate: entitlement.TemplateModern}},
		{name: "Premium plus template on trial", userID: trial.ID, input: CreateRestaurantInput{Name: "D", MenuTemplate: entitlement.TemplateVintage}, wantErr: ErrTemplateNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.restaurants.Create(tt.userID, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRestaurantService_Create_PlanLimit(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanFree, false)

	env.createRestaurant(t, owner.ID, "First")
	env.createRestaurant(t, owner.ID, "Second")

	_, err := env.restaurants.Create(owner.ID, CreateRestaurantInput{Name: "Third"})
	assert.ErrorIs(t, err, ErrRestaurantLimitReached)
}

func TestRestaurantService_Ownership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	intruder := env.createOwner(t, "intruder@example.com", entitlement.PlanPremium, false)
	restaurant := env.createRestaurant(t, owner.ID, "Trattoria")

	_, err := env.restaurants.Get(intruder.ID, restaurant.ID)
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
	assert.ErrorIs(t, env.restaurants.Delete(intruder.ID, restaurant.ID), ErrRestaurantNotFound)

	mine, err := env.restaurants.ListMine(owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestRestaurantService_Update(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	first := env.createRestaurant(t, owner.ID, "Trattoria")
	env.createRestaurant(t, owner.ID, "Pizzeria")

	taken := "pizzeria"
	_, err := env.restaurants.Update(owner.ID, first.ID, UpdateRestaurantInput{Slug: &taken})
	assert.ErrorIs(t, err, ErrSlugTaken)

	slug := "trattoria-roma"
	inactive := false
	desc := "  Handmade pasta "
	updated, err := env.restaurants.Update(owner.ID, first.ID, UpdateRestaurantInput{
		Slug:        &slug,
		IsActive:    &inactive,
		Description: &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, "trattoria-roma", updated.Slug)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Handmade pasta", updated.Description)

	stored, err := env.restaurantRepo.FindByID(first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	events := env.notifier.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, first.ID, events[len(events)-1].RestaurantID)
}

func TestRestaurantService_Delete(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	restaurant := env.createRestaurant(t, owner.ID, "Trattoria")

	require.NoError(t, env.restaurants.Delete(owner.ID, restaurant.ID))

	_, err := env.restaurants.Get(owner.ID, restaurant.ID)
	assert.ErrorIs(t, err, ErrRestaurantNotFound)

	sub, err := env.subRepo.FindByUserID(owner.ID)
	require.NoError(t, err)
	assert.Zero(t, sub.RestaurantCount)
}

func TestRestaurantService_SetTemplate(t *testing.T) {
	env := newTestEnv(t)
	free := env.createOwner(t, "free@example.com", entitlement.PlanFree, false)
	restaurant := env.createRestaurant(t, free.ID, "Imbiss")

	_, err := env.restaurants.SetTemplate(free.ID, restaurant.ID, entitlement.TemplateLuxury)
	assert.ErrorIs(t, err, ErrTemplateNotAllowed)

	updated, err := env.restaurants.SetTemplate(free.ID, restaurant.ID, entitlement.TemplateMinimal)
	require.NoError(t, err)
	assert.Equal(t, entitlement.TemplateMinimal, updated.MenuTemplate)
}

func TestRestaurantService_SetCustomization(t *testing.T) {
	env := newTestEnv(t)
	free := env.createOwner(t, "free@example.com", entitlement.PlanFree, false)
	premium := env.createOwner(t, "premium@example.com", entitlement.PlanPremium, false)
	freeRestaurant := env.createRestaurant(t, free.ID, "Imbiss")
	premiumRestaurant := env.createRestaurant(t, premium.ID, "Brasserie")

	custom := model.Customization{PrimaryColor: "#112233", FontFamily: "Lato"}

	_, err := env.restaurants.SetCustomization(free.ID, freeRestaurant.ID, custom)
	assert.ErrorIs(t, err, ErrCustomBrandingLocked)

	// clearing is allowed on any plan
	_, err = env.restaurants.SetCustomization(free.ID, freeRestaurant.ID, model.Customization{})
	assert.NoError(t, err)

	_, err = env.restaurants.SetCustomization(premium.ID, premiumRestaurant.ID, model.Customization{PrimaryColor: "red"})
	assert.ErrorIs(t, err, ErrInvalidCustomization)

	updated, err := env.restaurants.SetCustomization(premium.ID, premiumRestaurant.ID, custom)
	require.NoError(t, err)
	assert.Equal(t, "#112233", updated.Customization.Data().PrimaryColor)

	stored, err := env.restaurantRepo.FindByID(premiumRestaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lato", stored.Customization.Data().FontFamily)
}

func TestRestaurantService_SetCustomDomain(t *testing.T) {
	env := newTestEnv(t)
	premium := env.createOwner(t, "premium@example.com", entitlement.PlanPremium, false)
	free := env.createOwner(t, "free@example.com", entitlement.PlanFree, false)
	restaurant := env.createRestaurant(t, premium.ID, "Brasserie")
	neighbour := env.createRestaurant(t, premium.ID, "Bistro")
	freeRestaurant := env.createRestaurant(t, free.ID, "Imbiss")

	_, err := env.restaurants.SetCustomDomain(free.ID, freeRestaurant.ID, "imbiss.de")
	assert.ErrorIs(t, err, ErrCustomDomainLocked)

	_, err = env.restaurants.SetCustomDomain(premium.ID, restaurant.ID, "not a domain")
	assert.ErrorIs(t, err, ErrInvalidDomain)

	result, err := env.restaurants.SetCustomDomain(premium.ID, restaurant.ID, "Menu.Brasserie.de.")
	require.NoError(t, err)
	require.NotNil(t, result.Restaurant.CustomDomain)
	assert.Equal(t, "menu.brasserie.de", *result.Restaurant.CustomDomain)
	assert.Equal(t, 1, result.ChangesLeft)

	// unchanged domain is not counted
	result, err = env.restaurants.SetCustomDomain(premium.ID, restaurant.ID, "menu.brasserie.de")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChangesLeft)

	_, err = env.restaurants.SetCustomDomain(premium.ID, neighbour.ID, "menu.brasserie.de")
	assert.ErrorIs(t, err, ErrDomainTaken)

	result, err = env.restaurants.SetCustomDomain(premium.ID, restaurant.ID, "www.brasserie.de")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ChangesLeft)

	_, err = env.restaurants.SetCustomDomain(premium.ID, restaurant.ID, "brasserie.de")
	assert.ErrorIs(t, err, ErrDomainChangeLimit)

	// the counter resets in a new calendar month
	lastMonth := time.Now().AddDate(0, 0, -40)
	require.NoError(t, env.db.Model(&model.Restaurant{}).Where("id = ?", restaurant.ID).
		Update("last_domain_change", lastMonth).Error)

	result, err = env.restaurants.SetCustomDomain(premium.ID, restaurant.ID, "")
	require.NoError(t, err)
	assert.Nil(t, result.Restaurant.CustomDomain)
	assert.Equal(t, 1, result.ChangesLeft)
}
