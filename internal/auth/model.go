package auth

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Verified     bool   `gorm:"default:false"`

	// At most one outstanding token of each kind; issuing a new one
	// overwrites the previous value.
	VerificationToken       *string `gorm:"index"`
	VerificationTokenExpiry *time.Time
	ResetToken              *string `gorm:"index"`
	ResetTokenExpiry        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// Sanitized returns a copy safe to hand to downstream handlers: the
// credential hash and any outstanding tokens are stripped.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.VerificationToken = nil
	c.VerificationTokenExpiry = nil
	c.ResetToken = nil
	c.ResetTokenExpiry = nil
	return &c
}
