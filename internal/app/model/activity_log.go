package model

import (
	"time"

	"gorm.io/datatypes"
)

type ActivityAction string

const (
	ActivityRestaurantCreated   ActivityAction = "restaurant_created"
	ActivityRestaurantUpdated   ActivityAction = "restaurant_updated"
	ActivityTemplateChanged     ActivityAction = "template_changed"
	ActivityCustomizationSaved  ActivityAction = "customization_updated"
	ActivityDomainChanged       ActivityAction = "domain_changed"
	ActivityCategoryCreated     ActivityAction = "category_created"
	ActivityCategoryUpdated     ActivityAction = "category_updated"
	ActivityCategoryDeleted     ActivityAction = "category_deleted"
	ActivityItemCreated         ActivityAction = "item_created"
	ActivityItemUpdated         ActivityAction = "item_updated"
	ActivityItemDeleted         ActivityAction = "item_deleted"
	ActivityItemDiscountChanged ActivityAction = "item_discount_changed"
	ActivityMenuImported        ActivityAction = "menu_imported"
)

// ActivityLog rows are append-only.
type ActivityLog struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	RestaurantID uint              `gorm:"index;not null" json:"restaurant_id"`
	UserID       uint              `gorm:"index" json:"user_id"`
	ActionType   ActivityAction    `gorm:"type:varchar(50);not null" json:"action_type"`
	Description  string            `gorm:"type:text" json:"description"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}
