package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UID         string         `gorm:"uniqueIndex;not null" json:"uid"`
	Email       string         `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string         `json:"displayName"`
	PhotoURL    string         `json:"photoURL"`
	Role        string         `gorm:"default:user;not null" json:"role"` // user, admin
	IsPremium   bool           `gorm:"default:false;not null" json:"isPremium"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PaymentEvent records every payment confirmation the entitlement handler
// has seen, keyed by the provider's event id.
type PaymentEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	EventID   string    `gorm:"uniqueIndex;not null" json:"eventId"`
	UserID    *uint     `json:"userId,omitempty"`
	Outcome   string    `gorm:"not null" json:"outcome"` // applied, already_premium, unresolved
	CreatedAt time.Time `json:"createdAt"`
}
