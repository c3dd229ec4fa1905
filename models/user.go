package models

import (
	"time"
	"visitbook-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Email    string    `gorm:"uniqueIndex;not null"`
	Password string    `gorm:"not null"`
	Name     string    `gorm:"not null"`

	// BusinessName is the sender name shown in outgoing SMS text.
	BusinessName string `gorm:"not null"`
	SMSReminders bool   `gorm:"default:false"`

	// Prepaid balance and per-message price, both in cents. Kept as
	// integers so debits and credits are exact.
	BalanceCents  int64 `gorm:"not null;default:0"`
	SMSPriceCents int64 `gorm:"not null;default:0"`

	LastLogin *time.Time

	Clients []Client `gorm:"foreignKey:UserID"`

	gorm.Model
}

// Initialize UUID and hash password before creating
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.ID = uuid.New()
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}
