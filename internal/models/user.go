package models

import "time"

// User is the owner of investments. Credentials live here but are never serialized.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	FullName            string     `gorm:"not null;size:255" json:"full_name"`
	IsActive            bool       `gorm:"default:true;index" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}
