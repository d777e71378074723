package contract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"farmlink-backend/internal/models"

	"gorm.io/gorm"
)

// Caller identifies who is performing an operation. It is passed explicitly
// to every operation instead of living in ambient session state, so
// authorization is enforced here and not in whatever UI sits in front.
type Caller struct {
	ProfileID string
	UserType  models.UserType
}

// Service owns the contract lifecycle rules: legal status transitions,
// progress bounds and monotonic payment accrual. All writes are
// field-targeted partial updates, so the farmer updating progress and the
// buyer recording a payment never clobber each other's columns.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// transitions lists every legal status edge. cancelled has no outgoing
// edges: it is terminal. completed -> active is the reopening toggle the
// product exposes; questionable, but it is the intended behavior.
var transitions = map[models.ContractStatus][]models.ContractStatus{
	models.ContractStatusPending:   {models.ContractStatusActive, models.ContractStatusCancelled},
	models.ContractStatusActive:    {models.ContractStatusCompleted, models.ContractStatusCancelled},
	models.ContractStatusCompleted: {models.ContractStatusActive},
	models.ContractStatusCancelled: {},
}

func canTransition(from, to models.ContractStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func validStatus(s models.ContractStatus) bool {
	switch s {
	case models.ContractStatusPending, models.ContractStatusActive,
		models.ContractStatusCompleted, models.ContractStatusCancelled:
		return true
	}
	return false
}

func validUnit(u models.CropUnit) bool {
	switch u {
	case models.UnitTons, models.UnitKg, models.UnitQuintals, models.UnitBoxes:
		return true
	}
	return false
}

type CreateInput struct {
	FarmerID          string
	BuyerID           string
	Title             string
	CropName          string
	Quantity          float64
	Unit              models.CropUnit
	PricePerUnit      float64
	QualityParameters string
	PaymentTerms      string
	StartDate         time.Time
	EndDate           time.Time
}

// Create validates the terms, fixes TotalValue to the exact product of
// quantity and price, and stores the contract in the initial pending state.
func (s *Service) Create(caller Caller, in CreateInput) (*models.Contract, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CropName = strings.TrimSpace(in.CropName)

	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.CropName == "" {
		return nil, fmt.Errorf("%w: crop_name is required", ErrValidation)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if in.PricePerUnit <= 0 {
		return nil, fmt.Errorf("%w: price_per_unit must be positive", ErrValidation)
	}
	if !validUnit(in.Unit) {
		return nil, fmt.Errorf("%w: unit must be one of tons, kg, quintals, boxes", ErrValidation)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	if in.FarmerID == in.BuyerID {
		return nil, fmt.Errorf("%w: farmer and buyer must be distinct", ErrValidation)
	}
	if caller.ProfileID != in.FarmerID && caller.ProfileID != in.BuyerID {
		return nil, fmt.Errorf("%w: caller must be a party to the contract", ErrForbidden)
	}

	farmer, err := s.loadProfile(in.FarmerID)
	if err != nil {
		return nil, err
	}
	if farmer.UserType != models.UserTypeFarmer {
		return nil, fmt.Errorf("%w: farmer_id does not reference a farmer profile", ErrValidation)
	}
	buyer, err := s.loadProfile(in.BuyerID)
	if err != nil {
		return nil, err
	}
	if buyer.UserType != models.UserTypeBuyer {
		return nil, fmt.Errorf("%w: buyer_id does not reference a buyer profile", ErrValidation)
	}

	contract := models.Contract{
		FarmerID:          in.FarmerID,
		BuyerID:           in.BuyerID,
		Title:             in.Title,
		CropName:          in.CropName,
		Quantity:          in.Quantity,
		Unit:              in.Unit,
		PricePerUnit:      in.PricePerUnit,
		TotalValue:        in.Quantity * in.PricePerUnit, // stored at full precision, never recomputed
		QualityParameters: strings.TrimSpace(in.QualityParameters),
		PaymentTerms:      strings.TrimSpace(in.PaymentTerms),
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Status:            models.ContractStatusPending,
		Progress:          0,
		PaidAmount:        0,
	}

	if err := s.db.Create(&contract).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &contract, nil
}

// Get returns the contract if the caller is one of its parties.
func (s *Service) Get(caller Caller, id string) (*models.Contract, error) {
	contract, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := requireParty(caller, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// ListForCaller returns the caller's contracts, optionally filtered by status.
func (s *Service) ListForCaller(caller Caller, status models.ContractStatus) ([]models.Contract, error) {
	q := s.db.Order("created_at DESC")
	switch caller.UserType {
	case models.UserTypeFarmer:
		q = q.Where("farmer_id = ?", caller.ProfileID)
	case models.UserTypeBuyer:
		q = q.Where("buyer_id = ?", caller.ProfileID)
	default:
		return nil, fmt.Errorf("%w: unknown user type", ErrForbidden)
	}
	if status != "" {
		if !validStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		q = q.Where("status = ?", status)
	}

	var contracts []models.Contract
	if err := q.Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return contracts, nil
}

// UpdateStatus moves the contract along a legal edge of the state machine.
// Either party may request a transition; cancelled is terminal.
func (s *Service) UpdateStatus(caller Caller, id string, target models.ContractStatus) (*models.Contract, error) {
	if !validStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}

	contract, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := requireParty(caller, contract); err != nil {
		return nil, err
	}
	if !canTransition(contract.Status, target) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, contract.Status, target)
	}

	if err := s.updateField(id, "status", target); err != nil {
		return nil, err
	}
	return s.load(id)
}

// UpdateProgress sets the farmer's completion estimate. It never touches
// status: reaching 100 does not complete the contract, the parties do that
// explicitly through UpdateStatus.
func (s *Service) UpdateProgress(caller Caller, id string, progress int) (*models.Contract, error) {
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidAmount)
	}

	contract, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if caller.ProfileID != contract.FarmerID {
		return nil, fmt.Errorf("%w: only the contract's farmer may update progress", ErrForbidden)
	}

	if err := s.updateField(id, "progress", progress); err != nil {
		return nil, err
	}
	return s.load(id)
}

// RecordPayment sets the cumulative paid amount to an absolute value. The
// caller computes the target figure (e.g. current + installment); this side
// only accepts values that keep the accrual monotonic and capped at the
// total. There is no refund path in this model.
func (s *Service) RecordPayment(caller Caller, id string, amount float64) (*models.Contract, error) {
	contract, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if caller.ProfileID != contract.BuyerID {
		return nil, fmt.Errorf("%w: only the contract's buyer may record payments", ErrForbidden)
	}
	if amount < contract.PaidAmount {
		return nil, fmt.Errorf("%w: paid amount cannot decrease (current %.2f)", ErrInvalidAmount, contract.PaidAmount)
	}
	if amount > contract.TotalValue {
		return nil, fmt.Errorf("%w: paid amount cannot exceed total value %.2f", ErrInvalidAmount, contract.TotalValue)
	}

	if err := s.updateField(id, "paid_amount", amount); err != nil {
		return nil, err
	}
	return s.load(id)
}

func requireParty(caller Caller, contract *models.Contract) error {
	if caller.ProfileID != contract.FarmerID && caller.ProfileID != contract.BuyerID {
		return fmt.Errorf("%w: caller is not a party to this contract", ErrForbidden)
	}
	return nil
}

func (s *Service) load(id string) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &contract, nil
}

func (s *Service) loadProfile(id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: profile %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &profile, nil
}

// updateField writes exactly one column (plus updated_at). Status, progress
// and paid_amount each have their own writer, so concurrent edits from the
// two parties stay isolated at the field level.
func (s *Service) updateField(id, column string, value interface{}) error {
	res := s.db.Model(&models.Contract{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return nil
}
