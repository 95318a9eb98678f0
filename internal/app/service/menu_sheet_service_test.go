package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/entitlement"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestMenuSheetService_ExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	source := env.createRestaurant(t, owner.ID, "Trattoria")
	target := env.createRestaurant(t, owner.ID, "Trattoria Zwei")

	categories, err := env.categories.List(owner.ID, source.ID)
	require.NoError(t, err)
	mains := categories[1]

	unavailable := false
	_, err = env.items.Create(owner.ID, source.ID, MenuItemInput{
		CategoryID:         &mains.ID,
		Name:               "Ossobuco",
		Description:        "Braised veal shank",
		Price:              24,
		DiscountPercentage: 25,
		DiscountActive:     true,
		Allergens:          []string{"celery", "gluten"},
	})
	require.NoError(t, err)
	_, err = env.items.Create(owner.ID, source.ID, MenuItemInput{
		Name:        "Focaccia",
		Price:       4.5,
		IsVegan:     true,
		IsAvailable: &unavailable,
	})
	require.NoError(t, err)

	data, filename, err := env.sheets.Export(owner.ID, source.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "trattoria-menu-"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	rows, err := f.GetRows("Menu")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Len(t, rows, 3)
	assert.Equal(t, MenuSheetHeader, rows[0])
	assert.Equal(t, "Main Courses", rows[1][0])
	assert.Equal(t, "24", rows[1][3])

	report, err := env.sheets.Import(owner.ID, target.ID, bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, report.ItemsCreated)
	// default categories already exist in the target
	assert.Zero(t, report.CategoriesCreated)
	assert.Empty(t, report.Skipped)

	items, err := env.items.List(owner.ID, target.ID, repository.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	byName := make(map[string]MenuItemView, len(items))
	for _, item := range items {
		byName[item.Name] = item
	}
	ossobuco := byName["Ossobuco"]
	assert.Equal(t, 18.0, ossobuco.Price)
	require.NotNil(t, ossobuco.OriginalPrice)
	assert.Equal(t, 24.0, *ossobuco.OriginalPrice)
	assert.Equal(t, model.StringList{"celery", "gluten"}, ossobuco.Allergens)
	require.NotNil(t, ossobuco.CategoryID)

	focaccia := byName["Focaccia"]
	assert.Nil(t, focaccia.CategoryID)
	assert.True(t, focaccia.IsVegan)
	assert.True(t, focaccia.IsVegetarian)
	assert.False(t, focaccia.IsAvailable)
}

func TestMenuSheetService_ImportBySlug(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	restaurant := env.createRestaurant(t, owner.ID, "Gasthaus Zur Post")

	buf := workbook(t, [][]interface{}{
		{"name", "PRICE", "category", "Vegetarian"},
		{"Käsespätzle", "12,50", "Hauptgerichte", "ja"},
		{"Apfelstrudel", "6.90", "Nachspeisen", "nein"},
		{"Broken", "twelve", "Hauptgerichte", ""},
		{"", "3", "", ""},
		{"Radler", "3,80", "hauptgerichte", ""},
	})

	report, err := env.sheets.ImportBySlug(restaurant.Slug, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, report.ItemsCreated)
	assert.Equal(t, 2, report.CategoriesCreated)
	assert.Equal(t, []SkippedRow{
		{Row: 4, Reason: "invalid price"},
		{Row: 5, Reason: "missing name"},
	}, report.Skipped)

	items, err := env.itemRepo.ListByRestaurant(restaurant.ID, repository.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 12.5, items[0].Price)
	assert.True(t, items[0].IsVegetarian)
	assert.Equal(t, *items[0].CategoryID, *items[2].CategoryID)

	categories, err := env.categoryRepo.ListByRestaurant(restaurant.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 6)

	_, err = env.sheets.ImportBySlug("missing", workbook(t, [][]interface{}{{"Name", "Price"}}))
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestMenuSheetService_ImportRejectsBadSheets(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	restaurant := env.createRestaurant(t, owner.ID, "Bistro")

	_, err := env.sheets.Import(owner.ID, restaurant.ID, strings.NewReader("not a spreadsheet"))
	assert.ErrorIs(t, err, ErrInvalidSheet)

	_, err = env.sheets.Import(owner.ID, restaurant.ID, workbook(t, [][]interface{}{{"Title", "Cost"}, {"Tea", "2"}}))
	assert.ErrorIs(t, err, ErrInvalidSheet)
}

func TestMenuSheetService_ImportSkipsUnusablePrices(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createOwner(t, "owner@example.com", entitlement.PlanPremium, false)
	restaurant := env.createRestaurant(t, owner.ID, "Gasthaus Zur Post")

	tests := []struct {
		name        string
		price       string
		wantSkipped bool
	}{
		{name: "NaN", price: "NaN", wantSkipped: true},
		{name: "infinity", price: "Inf", wantSkipped: true},
		{name: "negative infinity", price: "-Infinity", wantSkipped: true},
		{name: "float overflow", price: "1e400", wantSkipped: true},
		{name: "above column range", price: "100000000", wantSkipped: true},
		{name: "negative", price: "-1", wantSkipped: true},
		{name: "largest storable", price: "99999999.99", wantSkipped: false},
		{name: "free item", price: "0", wantSkipped: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := workbook(t, [][]interface{}{
				{"Name", "Price"},
				{"Tap water " + tt.name, tt.price},
			})

			report, err := env.sheets.ImportBySlug(restaurant.Slug, buf)
			require.NoError(t, err)
			if tt.wantSkipped {
				assert.Equal(t, 0, report.ItemsCreated)
				assert.Equal(t, []SkippedRow{{Row: 2, Reason: "invalid price"}}, report.Skipped)
				return
			}
			assert.Equal(t, 1, report.ItemsCreated)
			assert.Empty(t, report.Skipped)
		})
	}
}
