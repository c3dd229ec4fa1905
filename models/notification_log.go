// models/notification_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null"`
	VisitID  uuid.UUID `gorm:"type:uuid;index"`

	Kind         string `gorm:"type:varchar(20)"` // reminder, cancellation
	Message      string `gorm:"type:text"`
	PhoneNumber  string `gorm:"type:varchar(20)"`
	Status       string `gorm:"type:varchar(20)"` // delivered, failed
	ErrorMessage string `gorm:"type:text"`
	SentAt       time.Time

	gorm.Model
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	n.ID = uuid.New()
	return
}
