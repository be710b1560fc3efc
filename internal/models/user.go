package models

import (
	"time"

	"github.com/diewo77/bookbuddy/gate"
)

// User is a library account. PasswordHash is a bcrypt hash and never leaves the
// server. Fines is the persisted balance; it never goes negative.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	Role           gate.Role `gorm:"size:16;not null;index" json:"role"`
	BorrowingLimit int       `gorm:"not null" json:"borrowingLimit"`
	Fines          float64   `gorm:"not null" json:"fines"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) GetUserID() uint { return u.ID }
