package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountPersonal AccountType = "personal"
	AccountBusiness AccountType = "business"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountPersonal || t == AccountBusiness
}

type User struct {
	Base
	Name         string      `gorm:"not null" json:"name"`
	Email        string      `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"not null" json:"-"`
	AccountType  AccountType `gorm:"type:varchar(20);not null;default:'personal'" json:"account_type"`
	IsAdmin      bool        `gorm:"not null;default:false" json:"is_admin"`
	LastLoginAt  *time.Time  `json:"last_login_at,omitempty"`
}

// PasswordResetToken stores the SHA-256 hash of a single-use reset token.
type PasswordResetToken struct {
	Base
	UserID    uuid.UUID  `gorm:"type:varchar(36);not null;index" json:"user_id"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
