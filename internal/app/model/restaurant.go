package model

import (
	"time"

	"github.com/tablemenu/menu-backend/internal/entitlement"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Customization overrides the template's default look.
type Customization struct {
	PrimaryColor    string `json:"primary_color,omitempty" validate:"omitempty,hexcolor,len=7"`
	SecondaryColor  string `json:"secondary_color,omitempty" validate:"omitempty,hexcolor,len=7"`
	BackgroundColor string `json:"background_color,omitempty" validate:"omitempty,hexcolor,len=7"`
	TextColor       string `json:"text_color,omitempty" validate:"omitempty,hexcolor,len=7"`
	FontFamily      string `json:"font_family,omitempty" validate:"omitempty,oneof=Inter Roboto Lato Merriweather Playfair-Display Montserrat Poppins Georgia"`
	ShowPrices      *bool  `json:"show_prices,omitempty"`
	ShowAllergens   *bool  `json:"show_allergens,omitempty"`
}

// FontFamilies is the fixed list a customization may pick from.
var FontFamilies = []string{"Inter", "Roboto", "Lato", "Merriweather", "Playfair-Display", "Montserrat", "Poppins", "Georgia"}

func (c Customization) IsEmpty() bool {
	return c == Customization{}
}

type Restaurant struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;type:varchar(60);not null" json:"slug"` // public URL: /menu/{slug}
	Description string `gorm:"type:text" json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `gorm:"type:varchar(20)" json:"postal_code"`
	Country     string `gorm:"type:varchar(2)" json:"country"`
	Phone       string `gorm:"type:varchar(30)" json:"phone"`
	Email       string `json:"email"`
	Website     string `json:"website"`
	LogoURL     string `json:"logo_url"`
	Currency    string `gorm:"type:varchar(3);default:'EUR'" json:"currency"`

	MenuTemplate  entitlement.Template              `gorm:"type:varchar(30);not null;default:'classic'" json:"menu_template"`
	Customization datatypes.JSONType[Customization] `json:"customization"`

	// nil means no custom domain; NULLs don't collide on the unique index
	CustomDomain       *string    `gorm:"uniqueIndex;type:varchar(253)" json:"custom_domain,omitempty"`
	DomainChangesCount int        `gorm:"default:0" json:"domain_changes_count"`
	LastDomainChange   *time.Time `json:"last_domain_change,omitempty"`

	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Categories []MenuCategory `gorm:"foreignKey:RestaurantID" json:"categories,omitempty"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}
