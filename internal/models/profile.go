package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeFarmer UserType = "farmer"
	UserTypeBuyer  UserType = "buyer"
)

// Profile - a farmer or buyer account. UserType is fixed at registration
// and decides which contract role and dashboard the user gets.
type Profile struct {
	ID              string   `gorm:"type:uuid;primaryKey"`
	Email           string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash    string   `gorm:"size:255;not null"`
	FullName        string   `gorm:"size:100;not null"`
	UserType        UserType `gorm:"size:20;not null;index"`
	BusinessName    string   `gorm:"size:150"`
	ContactNumber   string   `gorm:"size:30"`
	Location        string   `gorm:"size:150"`
	ProfileImageURL string   `gorm:"size:500"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
