package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	UserID       string    `gorm:"column:user_id;size:64;uniqueIndex;not null" json:"user_id"`
	Email        string    `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"column:name;size:255;not null" json:"name"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the projection returned to clients. The password hash
// never leaves the credential store.
type PublicUser struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
