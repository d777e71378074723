package listing_test

import (
	"testing"
	"time"

	"farmlink-backend/internal/listing"
	"farmlink-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func validListing() listing.ListingInput {
	return listing.ListingInput{
		CropName:       "Tomatoes",
		Quantity:       200,
		Unit:           models.UnitBoxes,
		PricePerUnit:   12.5,
		Location:       "Nashik",
		AvailableFrom:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableUntil: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidateListingInput(t *testing.T) {
	assert.NoError(t, listing.ValidateListingInput(validListing()))

	cases := []struct {
		name   string
		mutate func(*listing.ListingInput)
	}{
		{"empty crop name", func(in *listing.ListingInput) { in.CropName = "  " }},
		{"zero quantity", func(in *listing.ListingInput) { in.Quantity = 0 }},
		{"negative price", func(in *listing.ListingInput) { in.PricePerUnit = -3 }},
		{"unknown unit", func(in *listing.ListingInput) { in.Unit = "crates" }},
		{"window reversed", func(in *listing.ListingInput) {
			in.AvailableUntil = in.AvailableFrom.AddDate(0, 0, -1)
		}},
		{"missing window", func(in *listing.ListingInput) { in.AvailableFrom = time.Time{} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validListing()
			tc.mutate(&in)
			assert.ErrorIs(t, listing.ValidateListingInput(in), listing.ErrValidation)
		})
	}
}

func TestValidateListingInput_SingleDayWindow(t *testing.T) {
	in := validListing()
	in.AvailableUntil = in.AvailableFrom
	assert.NoError(t, listing.ValidateListingInput(in))
}
