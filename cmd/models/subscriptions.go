package models

import (
	"time"
)

// Subscription holds at most one row per user; the entitlement read path
// synthesizes a mock record (Mock=true, never persisted) when no row exists.
type Subscription struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	UserID      string     `gorm:"column:user_id;size:64;uniqueIndex;not null" json:"user_id"`
	IsActive    bool       `gorm:"column:is_active" json:"is_active"`
	Plan        string     `gorm:"column:plan;size:64" json:"plan"`
	Price       float64    `gorm:"column:price" json:"price"`
	ExpiresAt   time.Time  `gorm:"column:expires_at" json:"expires_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Mock bool `gorm:"-" json:"mock,omitempty"`
}
