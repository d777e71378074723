package report

import (
	"fmt"
	"log"

	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/contract"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// GET /api/contracts/export - the caller's contracts as an xlsx workbook
func ExportContractsHandler() fiber.Handler {
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
			Order("created_at DESC").
			Find(&contracts).Error; err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
		}

		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("could not close workbook: %v", err)
			}
		}()

		const sheet = "Contracts"
		f.SetSheetName(f.GetSheetName(0), sheet)

		headers := []string{
			"Title", "Crop", "Quantity", "Unit", "Price/Unit", "Total Value",
			"Start", "End", "Status", "Progress %", "Paid", "Pending", "Payment %",
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for row, ct := range contracts {
			values := []interface{}{
				ct.Title,
				ct.CropName,
				ct.Quantity,
				string(ct.Unit),
				ct.PricePerUnit,
				ct.TotalValue,
				ct.StartDate.Format("2006-01-02"),
				ct.EndDate.Format("2006-01-02"),
				string(ct.Status),
				ct.Progress,
				ct.PaidAmount,
				contract.PendingBalance(ct.TotalValue, ct.PaidAmount),
				contract.CompletionPercent(ct.PaidAmount, ct.TotalValue),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(sheet, cell, v)
			}
		}

		f.SetColWidth(sheet, "A", "B", 24)
		f.SetColWidth(sheet, "C", "M", 14)

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not generate report")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "contracts.xlsx"))
		return c.Send(buf.Bytes())
	}
}
