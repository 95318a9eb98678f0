package model

import "time"

type UserProfile struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName     string    `gorm:"not null" json:"full_name"`
	BusinessName string    `json:"business_name"`
	Phone        string    `gorm:"type:varchar(30)" json:"phone"`
	Language     string    `gorm:"type:varchar(5);default:'en'" json:"language"` // en | de
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
