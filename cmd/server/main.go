package main

import (
	"log"
	"strings"

	"farmlink-backend/internal/audit"
	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/config"
	"farmlink-backend/internal/contract"
	"farmlink-backend/internal/dashboard"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/listing"
	"farmlink-backend/internal/messaging"
	"farmlink-backend/internal/models"
	"farmlink-backend/internal/profile"
	"farmlink-backend/internal/report"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Profiles
	protected.Get("/profile", profile.GetProfileHandler())
	protected.Put("/profile", profile.UpdateProfileHandler())
	protected.Get("/farmers", profile.ListFarmersHandler())
	protected.Get("/buyers", profile.ListBuyersHandler())

	// Crop listings (creation/update/delete is farmer territory)
	protected.Get("/listings", listing.ListListingsHandler())
	farmerOnly := protected.Group("")
	farmerOnly.Use(auth.RequireUserType(models.UserTypeFarmer))
	farmerOnly.Post("/listings", listing.CreateListingHandler())
	farmerOnly.Put("/listings/:id", listing.UpdateListingHandler())
	farmerOnly.Delete("/listings/:id", listing.DeleteListingHandler())

	// Contracts - lifecycle rules live in the contract service
	protected.Post("/contracts", contract.CreateContractHandler())
	protected.Get("/contracts", contract.ListContractsHandler())
	protected.Get("/contracts/export", report.ExportContractsHandler())
	protected.Get("/contracts/:id", contract.GetContractHandler())
	protected.Patch("/contracts/:id/status", contract.UpdateContractStatusHandler())
	protected.Patch("/contracts/:id/progress", contract.UpdateContractProgressHandler())
	protected.Patch("/contracts/:id/payment", contract.RecordContractPaymentHandler())

	// Messaging
	protected.Post("/messages", messaging.SendMessageHandler())
	protected.Get("/conversations", messaging.ListConversationsHandler())
	protected.Get("/messages/:otherID", messaging.GetThreadHandler())
	protected.Patch("/messages/:id/read", messaging.MarkMessageReadHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server running on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
