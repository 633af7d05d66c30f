package models

import "time"

// User is the authenticated subject. The engine only reads RoleSlug and may
// rewrite it when a private custom role is derived for the user.
type User struct {
	Base
	Username  string     `gorm:"size:100;not null" json:"username" validate:"required,min=2"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Password  string     `gorm:"not null" json:"-"`
	Bio       string     `gorm:"default:''" json:"bio"`
	Image     string     `gorm:"default:''" json:"image"`
	RoleSlug  string     `gorm:"size:64;not null;default:'viewer'" json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// AuthTransaction records an issued token pair so sessions can be revoked
// server side.
type AuthTransaction struct {
	Base
	UserID    string    `gorm:"type:uuid;not null" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Token     string    `gorm:"not null" json:"token"`
	Refresh   string    `gorm:"not null" json:"refresh"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
}
