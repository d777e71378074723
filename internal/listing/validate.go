package listing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"farmlink-backend/internal/models"
)

var ErrValidation = errors.New("validation failed")

type ListingInput struct {
	CropName       string
	Quantity       float64
	Unit           models.CropUnit
	PricePerUnit   float64
	Location       string
	Description    string
	AvailableFrom  time.Time
	AvailableUntil time.Time
}

func validUnit(u models.CropUnit) bool {
	switch u {
	case models.UnitTons, models.UnitKg, models.UnitQuintals, models.UnitBoxes:
		return true
	}
	return false
}

// ValidateListingInput checks the creation/update rules for a crop listing:
// positive quantity and price, enumerated unit, availability window in order.
func ValidateListingInput(in ListingInput) error {
	if strings.TrimSpace(in.CropName) == "" {
		return fmt.Errorf("%w: crop_name is required", ErrValidation)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if in.PricePerUnit <= 0 {
		return fmt.Errorf("%w: price_per_unit must be positive", ErrValidation)
	}
	if !validUnit(in.Unit) {
		return fmt.Errorf("%w: unit must be one of tons, kg, quintals, boxes", ErrValidation)
	}
	if in.AvailableFrom.IsZero() || in.AvailableUntil.IsZero() {
		return fmt.Errorf("%w: available_from and available_until are required", ErrValidation)
	}
	if in.AvailableUntil.Before(in.AvailableFrom) {
		return fmt.Errorf("%w: available_until must not be before available_from", ErrValidation)
	}
	return nil
}
