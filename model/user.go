package model

import "time"

// User is the identity record behind a profile.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:128" json:"email"`
	PasswordHash string     `gorm:"size:64;not null" json:"-"`
	IsAdmin      bool       `gorm:"default:false" json:"is_admin"`
	Status       int        `gorm:"default:1" json:"status"` // 0=banned 1=active
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"last_login_ip"`
}
