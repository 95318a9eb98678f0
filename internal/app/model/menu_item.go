package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"github.com/tablemenu/menu-backend/internal/pricing"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList is a postgres TEXT[] that degrades to a plain text column on
// other dialects so the sqlite test database can migrate it.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return pq.StringArray(s).Value()
}

func (s *StringList) Scan(src interface{}) error {
	return (*pq.StringArray)(s).Scan(src)
}

// GormDataType keeps the schema parser from treating the slice as a relation.
func (StringList) GormDataType() string {
	return "text"
}

func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type MenuItem struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	CategoryID   *uint  `gorm:"index" json:"category_id"` // nil = uncategorized
	Name         string `gorm:"not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`

	// Price is what the customer pays while a discount is active; OriginalPrice
	// is only set in that case.
	Price              float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice      *float64   `gorm:"type:decimal(10,2)" json:"original_price"`
	DiscountPercentage int        `gorm:"default:0" json:"discount_percentage"`
	DiscountActive     bool       `gorm:"default:false" json:"discount_active"`
	DiscountStartDate  *time.Time `json:"discount_start_date,omitempty"`
	DiscountEndDate    *time.Time `json:"discount_end_date,omitempty"`

	IsVegetarian   bool       `gorm:"default:false" json:"is_vegetarian"`
	IsVegan        bool       `gorm:"default:false" json:"is_vegan"`
	IsGlutenFree   bool       `gorm:"default:false" json:"is_gluten_free"`
	IsAvailable    bool       `gorm:"not null;default:true" json:"is_available"`
	IsDailySpecial bool       `gorm:"default:false;index" json:"is_daily_special"`
	Allergens      StringList `json:"allergens"`
	ImageURL       string     `json:"image_url"`
	DisplayOrder   int        `gorm:"default:0" json:"display_order"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

func (m *MenuItem) PriceState() pricing.Stored {
	return pricing.Stored{
		Price:          m.Price,
		OriginalPrice:  m.OriginalPrice,
		DiscountActive: m.DiscountActive,
		Window:         pricing.Window{Start: m.DiscountStartDate, End: m.DiscountEndDate},
	}
}

// BasePrice is the undiscounted price.
func (m *MenuItem) BasePrice() float64 {
	return m.PriceState().BasePrice()
}

// Quote is the price shown to guests at now.
func (m *MenuItem) Quote(now time.Time) pricing.Quote {
	return pricing.Display(m.PriceState(), now)
}
