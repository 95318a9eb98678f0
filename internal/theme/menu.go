package theme

import (
	"github.com/tablemenu/menu-backend/internal/entitlement"
)

// Menu is the guest-facing menu. The JSON endpoint returns it as is and the
// HTML renderer draws it.
type Menu struct {
	Slug        string               `json:"slug"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	LogoURL     string               `json:"logo_url,omitempty"`
	Address     string               `json:"address,omitempty"`
	City        string               `json:"city,omitempty"`
	Phone       string               `json:"phone,omitempty"`
	Website     string               `json:"website,omitempty"`
	Currency    string               `json:"currency"`
	Template    entitlement.Template `json:"template"`
	Style       Style                `json:"style"`
	Specials    []Item               `json:"specials"`
	Sections    []Section            `json:"sections"`
}

type Section struct {
	ID          uint   `json:"id"` // 0 for uncategorized items
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Items       []Item `json:"items"`
}

type Item struct {
	ID             uint     `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	OriginalPrice  *float64 `json:"original_price,omitempty"`
	SavingsPercent int      `json:"savings_percent,omitempty"`
	IsVegetarian   bool     `json:"is_vegetarian"`
	IsVegan        bool     `json:"is_vegan"`
	IsGlutenFree   bool     `json:"is_gluten_free"`
	IsAvailable    bool     `json:"is_available"`
	IsDailySpecial bool     `json:"is_daily_special"`
	Allergens      []string `json:"allergens,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
}

// IsEmpty reports a menu without any items.
func (m *Menu) IsEmpty() bool {
	if len(m.Specials) > 0 {
		return false
	}
	for _, s := range m.Sections {
		if len(s.Items) > 0 {
			return false
		}
	}
	return true
}
