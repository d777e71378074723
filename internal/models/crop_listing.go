package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CropListing - a farmer's open offer. No status field: existence means available.
type CropListing struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	FarmerID       string    `gorm:"type:uuid;index;not null"`
	Farmer         Profile   `gorm:"foreignKey:FarmerID"`
	CropName       string    `gorm:"size:100;not null"`
	Quantity       float64   `gorm:"not null"`
	Unit           CropUnit  `gorm:"size:20;not null"`
	PricePerUnit   float64   `gorm:"not null"`
	Location       string    `gorm:"size:150"`
	Description    string    `gorm:"size:1000"`
	AvailableFrom  time.Time `gorm:"not null"`
	AvailableUntil time.Time `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (l *CropListing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
