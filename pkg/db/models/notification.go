package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paytrack/paytrack-backend/pkg/enums"
)

// Notification is a rendered message addressed to a single user.
type Notification struct {
	ID        uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID                  `gorm:"type:uuid;column:user_id;not null" json:"user_id"`
	Category  enums.NotificationCategory `gorm:"column:category;type:text;not null" json:"category"`
	Message   string                     `gorm:"column:message;type:text;not null" json:"message"`
	Metadata  datatypes.JSON             `gorm:"column:metadata;type:jsonb" json:"metadata"`
	IsRead    bool                       `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
