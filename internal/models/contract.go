package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractStatusPending   ContractStatus = "pending"
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

type CropUnit string

const (
	UnitTons     CropUnit = "tons"
	UnitKg       CropUnit = "kg"
	UnitQuintals CropUnit = "quintals"
	UnitBoxes    CropUnit = "boxes"
)

// Contract - binding agreement between one farmer and one buyer.
// TotalValue is fixed at creation (quantity * price_per_unit) and never
// recomputed; terms are immutable after creation. PaidAmount accrues
// monotonically up to TotalValue, Progress stays within [0, 100].
type Contract struct {
	ID                string         `gorm:"type:uuid;primaryKey"`
	FarmerID          string         `gorm:"type:uuid;index;not null"`
	Farmer            Profile        `gorm:"foreignKey:FarmerID"`
	BuyerID           string         `gorm:"type:uuid;index;not null"`
	Buyer             Profile        `gorm:"foreignKey:BuyerID"`
	Title             string         `gorm:"size:200;not null"`
	CropName          string         `gorm:"size:100;not null"`
	Quantity          float64        `gorm:"not null"`
	Unit              CropUnit       `gorm:"size:20;not null"`
	PricePerUnit      float64        `gorm:"not null"`
	TotalValue        float64        `gorm:"not null"`
	QualityParameters string         `gorm:"size:500"`
	PaymentTerms      string         `gorm:"size:500"`
	StartDate         time.Time      `gorm:"not null"`
	EndDate           time.Time      `gorm:"not null"`
	Status            ContractStatus `gorm:"size:20;not null;index;default:pending"`
	Progress          int            `gorm:"not null;default:0"`
	PaidAmount        float64        `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
