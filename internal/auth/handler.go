package auth

import (
	"strings"

	"farmlink-backend/internal/config"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	UserType      string `json:"user_type"` // "farmer" or "buyer"
	BusinessName  string `json:"business_name"`
	ContactNumber string `json:"contact_number"`
	Location      string `json:"location"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.FullName = strings.TrimSpace(body.FullName)

		if body.Email == "" || body.Password == "" || body.FullName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Full name, email and password are required")
		}
		if body.UserType != string(models.UserTypeFarmer) && body.UserType != string(models.UserTypeBuyer) {
			return fiber.NewError(fiber.StatusBadRequest, "user_type must be 'farmer' or 'buyer'")
		}

		var count int64
		database.DB.Model(&models.Profile{}).
			Where("email = ?", body.Email).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "An account with this email already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		profile := models.Profile{
			Email:         body.Email,
			PasswordHash:  string(hash),
			FullName:      body.FullName,
			UserType:      models.UserType(body.UserType),
			BusinessName:  strings.TrimSpace(body.BusinessName),
			ContactNumber: strings.TrimSpace(body.ContactNumber),
			Location:      strings.TrimSpace(body.Location),
		}

		if err := database.DB.Create(&profile).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create account")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        profile.ID,
			"email":     profile.Email,
			"user_type": profile.UserType,
		})
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var profile models.Profile
		if err := database.DB.Where("email = ?", body.Email).First(&profile).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email or password is incorrect")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email or password is incorrect")
		}

		token, err := GenerateToken(cfg.JWTSecret, &profile)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        profile.ID,
				"full_name": profile.FullName,
				"email":     profile.Email,
				"user_type": profile.UserType,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)
		userID, ok := userIDVal.(string)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not determine user")
		}

		var profile models.Profile
		if err := database.DB.First(&profile, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Account not found")
		}

		return c.JSON(fiber.Map{
			"user_id":           profile.ID,
			"full_name":         profile.FullName,
			"email":             profile.Email,
			"user_type":         profile.UserType,
			"business_name":     profile.BusinessName,
			"contact_number":    profile.ContactNumber,
			"location":          profile.Location,
			"profile_image_url": profile.ProfileImageURL,
		})
	}
}
