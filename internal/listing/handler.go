package listing

import (
	"errors"
	"strings"
	"time"

	"farmlink-backend/internal/audit"
	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateListingRequest struct {
	CropName       string  `json:"crop_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	PricePerUnit   float64 `json:"price_per_unit"`
	Location       string  `json:"location"`
	Description    string  `json:"description"`
	AvailableFrom  string  `json:"available_from"` // "2025-06-01"
	AvailableUntil string  `json:"available_until"`
}

type ListingResponse struct {
	ID             string  `json:"id"`
	FarmerID       string  `json:"farmer_id"`
	FarmerName     string  `json:"farmer_name"`
	CropName       string  `json:"crop_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	PricePerUnit   float64 `json:"price_per_unit"`
	Location       string  `json:"location"`
	Description    string  `json:"description"`
	AvailableFrom  string  `json:"available_from"`
	AvailableUntil string  `json:"available_until"`
	CreatedAt      string  `json:"created_at"`
}

func toResponse(l *models.CropListing) ListingResponse {
	return ListingResponse{
		ID:             l.ID,
		FarmerID:       l.FarmerID,
		FarmerName:     l.Farmer.FullName,
		CropName:       l.CropName,
		Quantity:       l.Quantity,
		Unit:           string(l.Unit),
		PricePerUnit:   l.PricePerUnit,
		Location:       l.Location,
		Description:    l.Description,
		AvailableFrom:  l.AvailableFrom.Format("2006-01-02"),
		AvailableUntil: l.AvailableUntil.Format("2006-01-02"),
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
	}
}

func parseListingBody(c *fiber.Ctx) (*ListingInput, error) {
	var body CreateListingRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	from, err := time.Parse("2006-01-02", body.AvailableFrom)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "available_from must be in 'YYYY-MM-DD' format")
	}
	until, err := time.Parse("2006-01-02", body.AvailableUntil)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "available_until must be in 'YYYY-MM-DD' format")
	}

	in := &ListingInput{
		CropName:       strings.TrimSpace(body.CropName),
		Quantity:       body.Quantity,
		Unit:           models.CropUnit(body.Unit),
		PricePerUnit:   body.PricePerUnit,
		Location:       strings.TrimSpace(body.Location),
		Description:    strings.TrimSpace(body.Description),
		AvailableFrom:  from,
		AvailableUntil: until,
	}
	if err := ValidateListingInput(*in); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return in, nil
}

// -------------------------
// Handlers
// -------------------------

// POST /api/listings (farmer only, enforced in routing)
func CreateListingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, ok := c.Locals(auth.CtxUserIDKey).(string)
		if !ok || farmerID == "" {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user")
		}

		in, err := parseListingBody(c)
		if err != nil {
			return err
		}

		l := models.CropListing{
			FarmerID:       farmerID,
			CropName:       in.CropName,
			Quantity:       in.Quantity,
			Unit:           in.Unit,
			PricePerUnit:   in.PricePerUnit,
			Location:       in.Location,
			Description:    in.Description,
			AvailableFrom:  in.AvailableFrom,
			AvailableUntil: in.AvailableUntil,
		}

		if err := database.DB.Create(&l).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		audit.WriteLog(audit.LogOptions{
			ActorID:     farmerID,
			EntityType:  "crop_listing",
			EntityID:    l.ID,
			Action:      models.AuditActionCreate,
			Description: "Crop listing created: " + l.CropName,
			After:       l,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(&l))
	}
}

// GET /api/listings?farmer_id=<uuid>
func ListListingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Farmer").Order("created_at DESC")
		if farmerID := c.Query("farmer_id"); farmerID != "" {
			dbq = dbq.Where("farmer_id = ?", farmerID)
		}

		var listings []models.CropListing
		if err := dbq.Find(&listings).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		out := make([]ListingResponse, 0, len(listings))
		for i := range listings {
			out = append(out, toResponse(&listings[i]))
		}
		return c.JSON(out)
	}
}

// PUT /api/listings/:id (owner only)
func UpdateListingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, ok := c.Locals(auth.CtxUserIDKey).(string)
		if !ok || farmerID == "" {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user")
		}

		var l models.CropListing
		if err := database.DB.First(&l, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Listing not found")
			}
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}
		if l.FarmerID != farmerID {
			return fiber.NewError(fiber.StatusForbidden, "You can only update your own listings")
		}

		in, err := parseListingBody(c)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"crop_name":       in.CropName,
			"quantity":        in.Quantity,
			"unit":            in.Unit,
			"price_per_unit":  in.PricePerUnit,
			"location":        in.Location,
			"description":     in.Description,
			"available_from":  in.AvailableFrom,
			"available_until": in.AvailableUntil,
		}
		if err := database.DB.Model(&l).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		return c.JSON(toResponse(&l))
	}
}

// DELETE /api/listings/:id (owner only)
func DeleteListingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		farmerID, ok := c.Locals(auth.CtxUserIDKey).(string)
		if !ok || farmerID == "" {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user")
		}

		var l models.CropListing
		if err := database.DB.First(&l, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Listing not found")
			}
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}
		if l.FarmerID != farmerID {
			return fiber.NewError(fiber.StatusForbidden, "You can only delete your own listings")
		}

		if err := database.DB.Delete(&l).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		audit.WriteLog(audit.LogOptions{
			ActorID:     farmerID,
			EntityType:  "crop_listing",
			EntityID:    l.ID,
			Action:      models.AuditActionDelete,
			Description: "Crop listing deleted: " + l.CropName,
			Before:      l,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
