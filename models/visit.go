package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visit struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null"`

	Date  time.Time `gorm:"type:date;index;not null"`
	Time  string    `gorm:"type:varchar(5);not null"` // "HH:MM"
	Notes string    `gorm:"type:text"`

	// Day a reminder for this visit was confirmed delivered. A visit
	// with this set is never selected for another reminder, so a
	// scheduler firing twice cannot double-bill.
	ReminderSentOn *time.Time `gorm:"type:date"`

	Client Client `gorm:"foreignKey:ClientID"`

	gorm.Model
}

func (v *Visit) BeforeCreate(tx *gorm.DB) (err error) {
	v.ID = uuid.New()
	return
}
