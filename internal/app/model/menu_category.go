package model

import "time"

// DefaultCategoryNames are seeded, in this order, for every new restaurant.
var DefaultCategoryNames = []string{"Appetizers", "Main Courses", "Desserts", "Beverages"}

type MenuCategory struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	Name         string    `gorm:"not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"` // user controlled, never renumbered
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Items []MenuItem `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"items,omitempty"`
}

func (MenuCategory) TableName() string {
	return "menu_categories"
}
