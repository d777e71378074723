package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message - direct message between two profiles, optionally tagged with a
// contract for context. Only state is the unread -> read flip.
type Message struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	SenderID   string  `gorm:"type:uuid;index;not null"`
	Sender     Profile `gorm:"foreignKey:SenderID"`
	ReceiverID string  `gorm:"type:uuid;index;not null"`
	Receiver   Profile `gorm:"foreignKey:ReceiverID"`
	ContractID *string `gorm:"type:uuid;index"`
	Content    string  `gorm:"size:2000;not null"`
	Read       bool    `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
