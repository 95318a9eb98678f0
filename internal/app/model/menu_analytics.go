package model

import "time"

type AnalyticsEventType string

const (
	EventMenuView AnalyticsEventType = "menu_view"
	EventQRScan   AnalyticsEventType = "qr_scan"
	EventItemView AnalyticsEventType = "item_view"
)

func (e AnalyticsEventType) IsValid() bool {
	switch e {
	case EventMenuView, EventQRScan, EventItemView:
		return true
	}
	return false
}

type MenuAnalytics struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	RestaurantID uint               `gorm:"index:idx_analytics_restaurant_time;not null" json:"restaurant_id"`
	EventType    AnalyticsEventType `gorm:"type:varchar(20);not null" json:"event_type"`
	ItemID       *uint              `gorm:"index" json:"item_id,omitempty"`
	SessionID    string             `gorm:"type:varchar(64);index" json:"session_id"`
	UserAgent    string             `json:"-"`
	Language     string             `gorm:"type:varchar(5)" json:"language"`
	CreatedAt    time.Time          `gorm:"index:idx_analytics_restaurant_time" json:"created_at"`
}

func (MenuAnalytics) TableName() string {
	return "menu_analytics"
}
