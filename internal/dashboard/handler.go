package dashboard

import (
	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/contract"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type SummaryResponse struct {
	UserType          string           `json:"user_type"`
	ContractsByStatus map[string]int64 `json:"contracts_by_status"`
	TotalContracts    int64            `json:"total_contracts"`
	TotalValue        float64          `json:"total_value"`
	TotalPaid         float64          `json:"total_paid"`
	PendingBalance    float64          `json:"pending_balance"`
	ActiveListings    int64            `json:"active_listings"` // farmers only
	UnreadMessages    int64            `json:"unread_messages"`
}

// GET /api/dashboard/summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(auth.CtxUserIDKey).(string)
		if !ok || userID == "" {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user")
		}
		userType, ok := c.Locals(auth.CtxUserTypeKey).(models.UserType)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Could not determine user type")
		}

		partyColumn := "buyer_id"
		if userType == models.UserTypeFarmer {
			partyColumn = "farmer_id"
		}

		var contracts []models.Contract
		if err := database.DB.
			Where(partyColumn+" = ?", userID).
			Find(&contracts).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		resp := SummaryResponse{
			UserType: string(userType),
			ContractsByStatus: map[string]int64{
				string(models.ContractStatusPending):   0,
				string(models.ContractStatusActive):    0,
				string(models.ContractStatusCompleted): 0,
				string(models.ContractStatusCancelled): 0,
			},
			TotalContracts: int64(len(contracts)),
		}

		for _, ct := range contracts {
			resp.ContractsByStatus[string(ct.Status)]++
			resp.TotalValue += ct.TotalValue
			resp.TotalPaid += ct.PaidAmount
			resp.PendingBalance += contract.PendingBalance(ct.TotalValue, ct.PaidAmount)
		}

		if userType == models.UserTypeFarmer {
			if err := database.DB.Model(&models.CropListing{}).
				Where("farmer_id = ?", userID).
				Count(&resp.ActiveListings).Error; err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
			}
		}

		if err := database.DB.Model(&models.Message{}).
			Where("receiver_id = ? AND read = ?", userID, false).
			Count(&resp.UnreadMessages).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		return c.JSON(resp)
	}
}
