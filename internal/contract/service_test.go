package contract_test

import (
	"testing"
	"time"

	"farmlink-backend/internal/contract"
	"farmlink-backend/internal/database"
	"farmlink-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedParties(t *testing.T, db *gorm.DB) (models.Profile, models.Profile) {
	farmer := models.Profile{
		Email:        "asha@farm.example",
		PasswordHash: "x",
		FullName:     "Asha Patel",
		UserType:     models.UserTypeFarmer,
	}
	buyer := models.Profile{
		Email:        "ravi@mandi.example",
		PasswordHash: "x",
		FullName:     "Ravi Mehta",
		UserType:     models.UserTypeBuyer,
	}
	require.NoError(t, db.Create(&farmer).Error)
	require.NoError(t, db.Create(&buyer).Error)
	return farmer, buyer
}

func validInput(farmerID, buyerID string) contract.CreateInput {
	return contract.CreateInput{
		FarmerID:     farmerID,
		BuyerID:      buyerID,
		Title:        "Wheat supply 2026",
		CropName:     "Wheat",
		Quantity:     10,
		Unit:         models.UnitTons,
		PricePerUnit: 500,
		StartDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func farmerCaller(p models.Profile) contract.Caller {
	return contract.Caller{ProfileID: p.ID, UserType: models.UserTypeFarmer}
}

func buyerCaller(p models.Profile) contract.Caller {
	return contract.Caller{ProfileID: p.ID, UserType: models.UserTypeBuyer}
}

func TestCreate_SetsDerivedTotalAndInitialState(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, float64(5000), c.TotalValue)
	assert.Equal(t, models.ContractStatusPending, c.Status)
	assert.Equal(t, 0, c.Progress)
	assert.Equal(t, float64(0), c.PaidAmount)
}

func TestCreate_TotalValueKeepsFullPrecision(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	in := validInput(farmer.ID, buyer.ID)
	in.Quantity = 2.5
	in.PricePerUnit = 199.99

	c, err := svc.Create(buyerCaller(buyer), in)
	require.NoError(t, err)

	// Stored as the exact product, no rounding to two decimals.
	assert.InDelta(t, 499.975, c.TotalValue, 1e-9)
}

func TestCreate_Validation(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	secondFarmer := models.Profile{
		Email:        "kiran@farm.example",
		PasswordHash: "x",
		FullName:     "Kiran Rao",
		UserType:     models.UserTypeFarmer,
	}
	require.NoError(t, db.Create(&secondFarmer).Error)

	cases := []struct {
		name   string
		mutate func(*contract.CreateInput)
		want   error
	}{
		{"zero quantity", func(in *contract.CreateInput) { in.Quantity = 0 }, contract.ErrValidation},
		{"negative price", func(in *contract.CreateInput) { in.PricePerUnit = -1 }, contract.ErrValidation},
		{"unknown unit", func(in *contract.CreateInput) { in.Unit = "bushels" }, contract.ErrValidation},
		{"missing title", func(in *contract.CreateInput) { in.Title = "  " }, contract.ErrValidation},
		{"missing crop", func(in *contract.CreateInput) { in.CropName = "" }, contract.ErrValidation},
		{"end before start", func(in *contract.CreateInput) {
			in.EndDate = in.StartDate.AddDate(0, 0, -1)
		}, contract.ErrValidation},
		{"same party both sides", func(in *contract.CreateInput) { in.BuyerID = in.FarmerID }, contract.ErrValidation},
		{"buyer id references a farmer profile", func(in *contract.CreateInput) { in.BuyerID = secondFarmer.ID }, contract.ErrValidation},
		{"farmer id references a buyer profile", func(in *contract.CreateInput) { in.FarmerID = buyer.ID; in.BuyerID = secondFarmer.ID }, contract.ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(farmer.ID, buyer.ID)
			tc.mutate(&in)
			caller := contract.Caller{ProfileID: in.FarmerID, UserType: models.UserTypeFarmer}
			_, err := svc.Create(caller, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreate_CallerMustBeParty(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	outsider := models.Profile{
		Email:        "eve@other.example",
		PasswordHash: "x",
		FullName:     "Eve",
		UserType:     models.UserTypeBuyer,
	}
	require.NoError(t, db.Create(&outsider).Error)

	_, err := svc.Create(buyerCaller(outsider), validInput(farmer.ID, buyer.ID))
	assert.ErrorIs(t, err, contract.ErrForbidden)
}

func TestCreate_UnknownProfile(t *testing.T) {
	db := setupTestDB(t)
	farmer, _ := seedParties(t, db)
	svc := contract.New(db)

	in := validInput(farmer.ID, "00000000-0000-0000-0000-000000000000")
	_, err := svc.Create(farmerCaller(farmer), in)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestUpdateStatus_HappyPathAndReopen(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	c, err = svc.UpdateStatus(buyerCaller(buyer), c.ID, models.ContractStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, c.Status)

	c, err = svc.UpdateStatus(farmerCaller(farmer), c.ID, models.ContractStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCompleted, c.Status)

	// The reopening toggle: completed contracts can go back to active.
	c, err = svc.UpdateStatus(farmerCaller(farmer), c.ID, models.ContractStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, c.Status)

	c, err = svc.UpdateStatus(buyerCaller(buyer), c.ID, models.ContractStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, c.Status)
}

func TestUpdateStatus_PendingCannotSkipToCompleted(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(farmerCaller(farmer), c.ID, models.ContractStatusCompleted)
	assert.ErrorIs(t, err, contract.ErrInvalidTransition)
}

func TestUpdateStatus_CancelledIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(farmerCaller(farmer), c.ID, models.ContractStatusCancelled)
	require.NoError(t, err)

	targets := []models.ContractStatus{
		models.ContractStatusPending,
		models.ContractStatusActive,
		models.ContractStatusCompleted,
		models.ContractStatusCancelled,
	}
	for _, target := range targets {
		_, err := svc.UpdateStatus(farmerCaller(farmer), c.ID, target)
		assert.ErrorIs(t, err, contract.ErrInvalidTransition, "target %s", target)
	}
}

func TestUpdateStatus_UnknownTargetRejected(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(farmerCaller(farmer), c.ID, "archived")
	assert.ErrorIs(t, err, contract.ErrValidation)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	db := setupTestDB(t)
	farmer, _ := seedParties(t, db)
	svc := contract.New(db)

	_, err := svc.UpdateStatus(farmerCaller(farmer), "missing-id", models.ContractStatusActive)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestRecordPayment_AccruesMonotonically(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)
	require.Equal(t, float64(5000), c.TotalValue)

	c, err = svc.RecordPayment(buyerCaller(buyer), c.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), c.PaidAmount)
	assert.Equal(t, float64(4000), contract.PendingBalance(c.TotalValue, c.PaidAmount))
	assert.Equal(t, 20, contract.CompletionPercent(c.PaidAmount, c.TotalValue))

	// No refund path: the absolute amount can never decrease.
	_, err = svc.RecordPayment(buyerCaller(buyer), c.ID, 500)
	assert.ErrorIs(t, err, contract.ErrInvalidAmount)

	// Capped at the total value.
	_, err = svc.RecordPayment(buyerCaller(buyer), c.ID, 5000.01)
	assert.ErrorIs(t, err, contract.ErrInvalidAmount)

	// Re-submitting the same figure is allowed (non-decreasing, not strictly increasing).
	c, err = svc.RecordPayment(buyerCaller(buyer), c.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), c.PaidAmount)

	// Paying out the full total is legal.
	c, err = svc.RecordPayment(buyerCaller(buyer), c.ID, 5000)
	require.NoError(t, err)
	assert.Equal(t, float64(5000), c.PaidAmount)
	assert.Equal(t, 100, contract.CompletionPercent(c.PaidAmount, c.TotalValue))
}

func TestRecordPayment_OnlyBuyer(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.RecordPayment(farmerCaller(farmer), c.ID, 1000)
	assert.ErrorIs(t, err, contract.ErrForbidden)
}

func TestUpdateProgress_BoundsAndIdempotence(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.UpdateProgress(farmerCaller(farmer), c.ID, -1)
	assert.ErrorIs(t, err, contract.ErrInvalidAmount)
	_, err = svc.UpdateProgress(farmerCaller(farmer), c.ID, 101)
	assert.ErrorIs(t, err, contract.ErrInvalidAmount)

	c, err = svc.UpdateProgress(farmerCaller(farmer), c.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Progress)

	c, err = svc.UpdateProgress(farmerCaller(farmer), c.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Progress)
}

func TestUpdateProgress_OnlyFarmer(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.UpdateProgress(buyerCaller(buyer), c.ID, 50)
	assert.ErrorIs(t, err, contract.ErrForbidden)
}

func TestUpdateProgress_FullProgressDoesNotCompleteContract(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)
	c, err = svc.UpdateStatus(farmerCaller(farmer), c.ID, models.ContractStatusActive)
	require.NoError(t, err)

	c, err = svc.UpdateProgress(farmerCaller(farmer), c.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, c.Progress)
	assert.Equal(t, models.ContractStatusActive, c.Status)
}

func TestOperationsTargetOnlyTheirOwnField(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(buyerCaller(buyer), c.ID, models.ContractStatusActive)
	require.NoError(t, err)

	// Farmer and buyer write disjoint columns; neither write may clobber the other.
	_, err = svc.UpdateProgress(farmerCaller(farmer), c.ID, 40)
	require.NoError(t, err)
	_, err = svc.RecordPayment(buyerCaller(buyer), c.ID, 2500)
	require.NoError(t, err)

	final, err := svc.Get(farmerCaller(farmer), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, final.Status)
	assert.Equal(t, 40, final.Progress)
	assert.Equal(t, float64(2500), final.PaidAmount)
}

func TestGetAndList_PartyGating(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	outsider := models.Profile{
		Email:        "eve@other.example",
		PasswordHash: "x",
		FullName:     "Eve",
		UserType:     models.UserTypeBuyer,
	}
	require.NoError(t, db.Create(&outsider).Error)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.Get(buyerCaller(outsider), c.ID)
	assert.ErrorIs(t, err, contract.ErrForbidden)

	mine, err := svc.ListForCaller(buyerCaller(buyer), "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListForCaller(buyerCaller(outsider), "")
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestListForCaller_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	first, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)
	_, err = svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)

	_, err = svc.UpdateStatus(farmerCaller(farmer), first.ID, models.ContractStatusActive)
	require.NoError(t, err)

	active, err := svc.ListForCaller(farmerCaller(farmer), models.ContractStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	_, err = svc.ListForCaller(farmerCaller(farmer), "archived")
	assert.ErrorIs(t, err, contract.ErrValidation)
}

func TestInvariants_HoldAfterEveryOperation(t *testing.T) {
	db := setupTestDB(t)
	farmer, buyer := seedParties(t, db)
	svc := contract.New(db)

	c, err := svc.Create(farmerCaller(farmer), validInput(farmer.ID, buyer.ID))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(buyerCaller(buyer), c.ID, models.ContractStatusActive)
	require.NoError(t, err)

	check := func() {
		cur, err := svc.Get(farmerCaller(farmer), c.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cur.PaidAmount, float64(0))
		assert.LessOrEqual(t, cur.PaidAmount, cur.TotalValue)
		assert.GreaterOrEqual(t, cur.Progress, 0)
		assert.LessOrEqual(t, cur.Progress, 100)
	}

	steps := []func() error{
		func() error { _, err := svc.UpdateProgress(farmerCaller(farmer), c.ID, 30); return err },
		func() error { _, err := svc.RecordPayment(buyerCaller(buyer), c.ID, 1500); return err },
		func() error { _, err := svc.UpdateProgress(farmerCaller(farmer), c.ID, 100); return err },
		func() error { _, err := svc.RecordPayment(buyerCaller(buyer), c.ID, 5000); return err },
		func() error {
			_, err := svc.UpdateStatus(buyerCaller(buyer), c.ID, models.ContractStatusCompleted)
			return err
		},
	}
	for _, step := range steps {
		require.NoError(t, step())
		check()
	}
}
