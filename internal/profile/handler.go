package profile

import (
	"strings"

	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	FullName        *string `json:"full_name"`
	BusinessName    *string `json:"business_name"`
	ContactNumber   *string `json:"contact_number"`
	Location        *string `json:"location"`
	ProfileImageURL *string `json:"profile_image_url"`
}

type ProfileResponse struct {
	ID              string `json:"id"`
	FullName        string `json:"full_name"`
	UserType        string `json:"user_type"`
	BusinessName    string `json:"business_name"`
	ContactNumber   string `json:"contact_number"`
	Location        string `json:"location"`
	ProfileImageURL string `json:"profile_image_url"`
}

func toResponse(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		FullName:        p.FullName,
		UserType:        string(p.UserType),
		BusinessName:    p.BusinessName,
		ContactNumber:   p.ContactNumber,
		Location:        p.Location,
		ProfileImageURL: p.ProfileImageURL,
	}
}

// GET /api/profile
func GetProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(auth.CtxUserIDKey).(string)
		if !ok || userID == "" {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user")
		}

		var p models.Profile
		if err := database.DB.First(&p, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}
		return c.JSON(toResponse(&p))
	}
}

// PUT /api/profile - user_type is fixed at registration and cannot change here
func UpdateProfileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(auth.CtxUserIDKey).(string)
		if !ok || userID == "" {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user")
		}

		var body UpdateProfileRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var p models.Profile
		if err := database.DB.First(&p, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}

		updates := map[string]interface{}{}
		if body.FullName != nil {
			name := strings.TrimSpace(*body.FullName)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "full_name cannot be empty")
			}
			updates["full_name"] = name
		}
		if body.BusinessName != nil {
			updates["business_name"] = strings.TrimSpace(*body.BusinessName)
		}
		if body.ContactNumber != nil {
			updates["contact_number"] = strings.TrimSpace(*body.ContactNumber)
		}
		if body.Location != nil {
			updates["location"] = strings.TrimSpace(*body.Location)
		}
		if body.ProfileImageURL != nil {
			updates["profile_image_url"] = strings.TrimSpace(*body.ProfileImageURL)
		}

		if len(updates) > 0 {
			if err := database.DB.Model(&p).Updates(updates).Error; err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
			}
		}

		return c.JSON(toResponse(&p))
	}
}

// GET /api/farmers
func ListFarmersHandler() fiber.Handler {
	return listByUserType(models.UserTypeFarmer)
}

// GET /api/buyers
func ListBuyersHandler() fiber.Handler {
	return listByUserType(models.UserTypeBuyer)
}

func listByUserType(userType models.UserType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var profiles []models.Profile
		if err := database.DB.
			Where("user_type = ?", userType).
			Order("full_name ASC").
			Find(&profiles).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		out := make([]ProfileResponse, 0, len(profiles))
		for i := range profiles {
			out = append(out, toResponse(&profiles[i]))
		}
		return c.JSON(out)
	}
}
