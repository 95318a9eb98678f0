package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleOwner UserRole = "owner" // restaurant owner, the default account type
	RoleAdmin UserRole = "admin" // platform operator
)

// User is the auth account. Display fields live on UserProfile.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         UserRole       `gorm:"type:varchar(20);default:'owner'" json:"role"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Profile      *UserProfile      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Subscription *UserSubscription `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"subscription,omitempty"`
}

func (User) TableName() string {
	return "users"
}
