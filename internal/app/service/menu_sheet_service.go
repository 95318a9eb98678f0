package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tablemenu/menu-backend/internal/app/model"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/pricing"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var ErrInvalidSheet = errors.New("invalid menu sheet")

const menuSheetName = "Menu"

// MenuSheetHeader is the column order of exported sheets. Imports match
// headers case-insensitively and in any order; only Name and Price are required.
var MenuSheetHeader = []string{
	"Category",
	"Name",
	"Description",
	"Price",
	"Discount %",
	"Discount Active",
	"Vegetarian",
	"Vegan",
	"Gluten Free",
	"Available",
	"Daily Special",
	"Allergens",
	"Image URL",
}

type SkippedRow struct {
	Row    int    `json:"row"` // 1-based, as shown in spreadsheet apps
	Reason string `json:"reason"`
}

type ImportReport struct {
	ItemsCreated      int          `json:"items_created"`
	CategoriesCreated int          `json:"categories_created"`
	Skipped           []SkippedRow `json:"skipped"`
}

type MenuSheetService interface {
	Export(userID, restaurantID uint) ([]byte, string, error)
	Import(userID, restaurantID uint, r io.Reader) (*ImportReport, error)
	// ImportBySlug skips the ownership check; it backs the operator CLI.
	ImportBySlug(slug string, r io.Reader) (*ImportReport, error)
}

type menuSheetService struct {
	restaurantRepo repository.RestaurantRepository
	categoryRepo   repository.CategoryRepository
	itemRepo       repository.MenuItemRepository
	activityRepo   repository.ActivityRepository
	restaurants    RestaurantService
	notifier       ChangeNotifier
}

func NewMenuSheetService(
	restaurantRepo repository.RestaurantRepository,
	categoryRepo repository.CategoryRepository,
	itemRepo repository.MenuItemRepository,
	activityRepo repository.ActivityRepository,
	restaurants RestaurantService,
	notifier ChangeNotifier,
) MenuSheetService {
	return &menuSheetService{
		restaurantRepo: restaurantRepo,
		categoryRepo:   categoryRepo,
		itemRepo:       itemRepo,
		activityRepo:   activityRepo,
		restaurants:    restaurants,
		notifier:       notifier,
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (s *menuSheetService) Export(userID, restaurantID uint) ([]byte, string, error) {
	restaurant, err := s.restaurants.Get(userID, restaurantID)
	if err != nil {
		return nil, "", err
	}
	categories, err := s.categoryRepo.ListByRestaurant(restaurantID)
	if err != nil {
		return nil, "", err
	}
	items, err := s.itemRepo.ListByRestaurant(restaurantID, repository.ItemFilter{})
	if err != nil {
		return nil, "", err
	}

	names := make(map[uint]string, len(categories))
	order := make(map[uint]int, len(categories))
	for i, c := range categories {
		names[c.ID] = c.Name
		order[c.ID] = i
	}
	// group by category order, uncategorized last, keeping item order inside a group
	rows := make([][]model.MenuItem, len(categories)+1)
	for _, item := range items {
		idx := len(categories)
		if item.CategoryID != nil {
			if i, ok := order[*item.CategoryID]; ok {
				idx = i
			}
		}
		rows[idx] = append(rows[idx], item)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(menuSheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F5E6DA"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetSheetRow(menuSheetName, "A1", &MenuSheetHeader); err != nil {
		return nil, "", err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(MenuSheetHeader))
	if err := f.SetCellStyle(menuSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, "", err
	}
	if err := f.SetColWidth(menuSheetName, "A", "C", 24); err != nil {
		return nil, "", err
	}

	rowNum := 2
	for _, group := range rows {
		for _, item := range group {
			category := ""
			if item.CategoryID != nil {
				category = names[*item.CategoryID]
			}
			values := []interface{}{
				category,
				item.Name,
				item.Description,
				item.BasePrice(),
				item.DiscountPercentage,
				yesNo(item.DiscountActive),
				yesNo(item.IsVegetarian),
				yesNo(item.IsVegan),
				yesNo(item.IsGlutenFree),
				yesNo(item.IsAvailable),
				yesNo(item.IsDailySpecial),
				strings.Join(item.Allergens, ", "),
				item.ImageURL,
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowNum)
			if err := f.SetSheetRow(menuSheetName, cell, &values); err != nil {
				return nil, "", fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("%s-menu-%s.xlsx", restaurant.Slug, time.Now().Format("2006-01-02"))
	logger.Info("Menu exported", map[string]interface{}{
		"restaurant_id": restaurantID,
		"items":         len(items),
	})
	return buf.Bytes(), filename, nil
}

func (s *menuSheetService) Import(userID, restaurantID uint, r io.Reader) (*ImportReport, error) {
	restaurant, err := s.restaurants.Get(userID, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.importInto(restaurant, userID, r)
}

func (s *menuSheetService) ImportBySlug(slug string, r io.Reader) (*ImportReport, error) {
	restaurant, err := s.restaurantRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return s.importInto(restaurant, restaurant.UserID, r)
}

type sheetColumns map[string]int

func (c sheetColumns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1", "x", "ja":
		return true
	case "no", "n", "false", "0", "nein":
		return false
	}
	return def
}

func parseAmount(v string) (float64, error) {
	v = strings.TrimSpace(strings.NewReplacer("€", "", "$", "", "£", "").Replace(v))
	// "12,50" as typed in German spreadsheets
	if strings.Count(v, ",") == 1 && !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

func (s *menuSheetService) importInto(restaurant *model.Restaurant, userID uint, r io.Reader) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: no sheets found", ErrInvalidSheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty", ErrInvalidSheet)
	}

	cols := make(sheetColumns)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("%w: missing Name column", ErrInvalidSheet)
	}
	if _, ok := cols["price"]; !ok {
		return nil, fmt.Errorf("%w: missing Price column", ErrInvalidSheet)
	}

	report := &ImportReport{Skipped: []SkippedRow{}}
	categoryIDs := make(map[string]uint)

	for i, row := range rows[1:] {
		rowNum := i + 2
		name := cols.get(row, "name")
		if name == "" {
			if strings.TrimSpace(strings.Join(row, "")) != "" {
				report.Skipped = append(report.Skipped, SkippedRow{Row: rowNum, Reason: "missing name"})
			}
			continue
		}

		price, err := parseAmount(cols.get(row, "price"))
		if err == nil {
			err = pricing.ValidatePrice(price)
		}
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Row: rowNum, Reason: "invalid price"})
			continue
		}
		pct := 0
		if raw := cols.get(row, "discount %"); raw != "" {
			pct, err = strconv.Atoi(strings.TrimSuffix(raw, "%"))
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedRow{Row: rowNum, Reason: "invalid discount"})
				continue
			}
		}

		item := &model.MenuItem{
			RestaurantID:   restaurant.ID,
			Name:           name,
			Description:    cols.get(row, "description"),
			IsVegan:        parseBool(cols.get(row, "vegan"), false),
			IsGlutenFree:   parseBool(cols.get(row, "gluten free"), false),
			IsAvailable:    true,
			IsDailySpecial: parseBool(cols.get(row, "daily special"), false),
			Allergens:      cleanAllergens(strings.Split(cols.get(row, "allergens"), ",")),
			ImageURL:       cols.get(row, "image url"),
			DisplayOrder:   rowNum,
		}
		item.IsVegetarian = item.IsVegan || parseBool(cols.get(row, "vegetarian"), false)
		active := parseBool(cols.get(row, "discount active"), pct > 0)
		if err := applyPricing(item, price, DiscountInput{Percentage: pct, Active: active}); err != nil {
			report.Skipped = append(report.Skipped, SkippedRow{Row: rowNum, Reason: "invalid discount"})
			continue
		}

		if categoryName := cols.get(row, "category"); categoryName != "" {
			id, created, err := s.categoryFor(restaurant.ID, categoryName, categoryIDs)
			if err != nil {
				return report, err
			}
			if created {
				report.CategoriesCreated++
			}
			item.CategoryID = &id
		}

		if err := s.itemRepo.Create(item); err != nil {
			return report, err
		}
		if !parseBool(cols.get(row, "available"), true) {
			item.IsAvailable = false
			if err := s.itemRepo.Update(item); err != nil {
				return report, err
			}
		}
		report.ItemsCreated++
	}

	recordActivity(s.activityRepo, restaurant.ID, userID, model.ActivityMenuImported,
		fmt.Sprintf("Imported %d items from spreadsheet", report.ItemsCreated), map[string]interface{}{
			"items_created":      report.ItemsCreated,
			"categories_created": report.CategoriesCreated,
			"skipped":            len(report.Skipped),
		})
	if report.ItemsCreated > 0 || report.CategoriesCreated > 0 {
		notifyChange(s.notifier, restaurant.ID, "categories", "updated", 0)
		notifyChange(s.notifier, restaurant.ID, "items", "created", 0)
	}

	logger.Info("Menu imported", map[string]interface{}{
		"restaurant_id":      restaurant.ID,
		"items_created":      report.ItemsCreated,
		"categories_created": report.CategoriesCreated,
		"skipped":            len(report.Skipped),
	})
	return report, nil
}

// categoryFor finds a category by name, creating it at the end when missing.
func (s *menuSheetService) categoryFor(restaurantID uint, name string, cache map[string]uint) (uint, bool, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, false, nil
	}

	existing, err := s.categoryRepo.FindByName(restaurantID, name)
	if err == nil {
		cache[key] = existing.ID
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	order, err := s.categoryRepo.NextDisplayOrder(restaurantID)
	if err != nil {
		return 0, false, err
	}
	category := &model.MenuCategory{
		RestaurantID: restaurantID,
		Name:         name,
		DisplayOrder: order,
		IsActive:     true,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return 0, false, err
	}
	cache[key] = category.ID
	return category.ID, true, nil
}
