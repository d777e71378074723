package contract

import (
	"errors"
	"time"

	"farmlink-backend/internal/audit"
	"farmlink-backend/internal/auth"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateContractRequest struct {
	FarmerID          string  `json:"farmer_id"`
	BuyerID           string  `json:"buyer_id"`
	Title             string  `json:"title"`
	CropName          string  `json:"crop_name"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"` // tons | kg | quintals | boxes
	PricePerUnit      float64 `json:"price_per_unit"`
	QualityParameters string  `json:"quality_parameters"`
	PaymentTerms      string  `json:"payment_terms"`
	StartDate         string  `json:"start_date"` // "2025-06-01"
	EndDate           string  `json:"end_date"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress"`
}

type RecordPaymentRequest struct {
	PaidAmount float64 `json:"paid_amount"` // absolute cumulative amount, not a delta
}

type ContractResponse struct {
	ID                string  `json:"id"`
	FarmerID          string  `json:"farmer_id"`
	BuyerID           string  `json:"buyer_id"`
	Title             string  `json:"title"`
	CropName          string  `json:"crop_name"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	PricePerUnit      float64 `json:"price_per_unit"`
	TotalValue        float64 `json:"total_value"`
	QualityParameters string  `json:"quality_parameters"`
	PaymentTerms      string  `json:"payment_terms"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Status            string  `json:"status"`
	Progress          int     `json:"progress"`
	PaidAmount        float64 `json:"paid_amount"`
	PendingBalance    float64 `json:"pending_balance"`
	CompletionPercent int     `json:"completion_percent"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toResponse(c *models.Contract) ContractResponse {
	return ContractResponse{
		ID:                c.ID,
		FarmerID:          c.FarmerID,
		BuyerID:           c.BuyerID,
		Title:             c.Title,
		CropName:          c.CropName,
		Quantity:          c.Quantity,
		Unit:              string(c.Unit),
		PricePerUnit:      c.PricePerUnit,
		TotalValue:        c.TotalValue,
		QualityParameters: c.QualityParameters,
		PaymentTerms:      c.PaymentTerms,
		StartDate:         c.StartDate.Format("2006-01-02"),
		EndDate:           c.EndDate.Format("2006-01-02"),
		Status:            string(c.Status),
		Progress:          c.Progress,
		PaidAmount:        c.PaidAmount,
		PendingBalance:    PendingBalance(c.TotalValue, c.PaidAmount),
		CompletionPercent: CompletionPercent(c.PaidAmount, c.TotalValue),
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.Format(time.RFC3339),
	}
}

func callerFromCtx(c *fiber.Ctx) (Caller, error) {
	userID, ok := c.Locals(auth.CtxUserIDKey).(string)
	if !ok || userID == "" {
		return Caller{}, fiber.NewError(fiber.StatusForbidden, "Could not determine user")
	}
	userType, ok := c.Locals(auth.CtxUserTypeKey).(models.UserType)
	if !ok {
		return Caller{}, fiber.NewError(fiber.StatusForbidden, "Could not determine user type")
	}
	return Caller{ProfileID: userID, UserType: userType}, nil
}

// toHTTPError maps the service failure taxonomy to discrete user-facing
// messages. Persistence failures deliberately hide the underlying error.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Contract not found")
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to perform this action on this contract")
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, "Status change is not allowed in the contract's current state")
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPersistence):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable, try again")
	}
	return err
}

func actorName(profileID string) string {
	var profile models.Profile
	if err := database.DB.First(&profile, "id = ?", profileID).Error; err != nil {
		return ""
	}
	return profile.FullName
}

// -------------------------
// Handlers
// -------------------------

// POST /api/contracts
func CreateContractHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := callerFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateContractRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		startDate, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date must be in 'YYYY-MM-DD' format")
		}
		endDate, err := time.Parse("2006-01-02", body.EndDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_date must be in 'YYYY-MM-DD' format")
		}

		svc := New(database.DB)
		contract, err := svc.Create(caller, CreateInput{
			FarmerID:          body.FarmerID,
			BuyerID:           body.BuyerID,
			Title:             body.Title,
			CropName:          body.CropName,
			Quantity:          body.Quantity,
			Unit:              models.CropUnit(body.Unit),
			PricePerUnit:      body.PricePerUnit,
			QualityParameters: body.QualityParameters,
			PaymentTerms:      body.PaymentTerms,
			StartDate:         startDate,
			EndDate:           endDate,
		})
		if err != nil {
			return toHTTPError(err)
		}

		audit.WriteLog(audit.LogOptions{
			ActorID:     caller.ProfileID,
			ActorName:   actorName(caller.ProfileID),
			EntityType:  "contract",
			EntityID:    contract.ID,
			Action:      models.AuditActionCreate,
			Description: "Contract created: " + contract.Title,
			After:       contract,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(contract))
	}
}

// GET /api/contracts?status=active
func ListContractsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := callerFromCtx(c)
		if err != nil {
			return err
		}

		svc := New(database.DB)
		contracts, err := svc.ListForCaller(caller, models.ContractStatus(c.Query("status")))
		if err != nil {
			return toHTTPError(err)
		}

		out := make([]ContractResponse, 0, len(contracts))
		for i := range contracts {
			out = append(out, toResponse(&contracts[i]))
		}
		return c.JSON(out)
	}
}

// GET /api/contracts/:id
func GetContractHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := callerFromCtx(c)
		if err != nil {
			return err
		}

		svc := New(database.DB)
		contract, err := svc.Get(caller, c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(toResponse(contract))
	}
}

// PATCH /api/contracts/:id/status
func UpdateContractStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := callerFromCtx(c)
		if err != nil {
			return err
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		svc := New(database.DB)
		before, err := svc.Get(caller, c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}

		contract, err := svc.UpdateStatus(caller, c.Params("id"), models.ContractStatus(body.Status))
		if err != nil {
			return toHTTPError(err)
		}

		audit.WriteLog(audit.LogOptions{
			ActorID:     caller.ProfileID,
			ActorName:   actorName(caller.ProfileID),
			EntityType:  "contract",
			EntityID:    contract.ID,
			Action:      models.AuditActionUpdate,
			Description: "Status changed from " + string(before.Status) + " to " + string(contract.Status),
			Before:      before,
			After:       contract,
		})

		return c.JSON(toResponse(contract))
	}
}

// PATCH /api/contracts/:id/progress
func UpdateContractProgressHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := callerFromCtx(c)
		if err != nil {
			return err
		}

		var body UpdateProgressRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		svc := New(database.DB)
		contract, err := svc.UpdateProgress(caller, c.Params("id"), body.Progress)
		if err != nil {
			return toHTTPError(err)
		}

		audit.WriteLog(audit.LogOptions{
			ActorID:     caller.ProfileID,
			ActorName:   actorName(caller.ProfileID),
			EntityType:  "contract",
			EntityID:    contract.ID,
			Action:      models.AuditActionUpdate,
			Description: "Progress updated",
			After:       contract,
		})

		return c.JSON(toResponse(contract))
	}
}

// PATCH /api/contracts/:id/payment
func RecordContractPaymentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := callerFromCtx(c)
		if err != nil {
			return err
		}

		var body RecordPaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		svc := New(database.DB)
		contract, err := svc.RecordPayment(caller, c.Params("id"), body.PaidAmount)
		if err != nil {
			return toHTTPError(err)
		}

		audit.WriteLog(audit.LogOptions{
			ActorID:     caller.ProfileID,
			ActorName:   actorName(caller.ProfileID),
			EntityType:  "contract",
			EntityID:    contract.ID,
			Action:      models.AuditActionUpdate,
			Description: "Payment recorded",
			After:       contract,
		})

		return c.JSON(toResponse(contract))
	}
}
