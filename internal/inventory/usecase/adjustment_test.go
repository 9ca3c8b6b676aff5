package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decrease(productID string, qty int, confirmed bool) *dto.AdjustmentInput {
	return &dto.AdjustmentInput{
		ProductID: productID,
		Direction: dto.AdjustmentDecrease,
		Quantity:  qty,
		Reason:    "damaged during unloading",
		UserID:    testUser,
		Confirmed: confirmed,
	}
}

func TestManualAdjustment_ConfirmationGate(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)
	ctx := context.Background()

	res, err := f.uc.CreateManualAdjustment(ctx, decrease("p1", 6, false))
	require.NoError(t, err)
	assert.True(t, res.RequiresConfirmation)
	assert.Nil(t, res.Movement)
	assert.True(t, res.IsSignificant)
	assert.True(t, decimal.NewFromInt(-600).Equal(res.ValueImpact.Impact))
	assert.Equal(t, 10, f.product(t, "p1").StockQuantity)
	assert.Len(t, f.movements(t, "p1"), 1)
	assert.Empty(t, f.published.Events())

	res, err = f.uc.CreateManualAdjustment(ctx, decrease("p1", 6, true))
	require.NoError(t, err)
	assert.False(t, res.RequiresConfirmation)
	require.NotNil(t, res.Movement)
	assert.Equal(t, -6, res.Movement.Quantity)
	assert.Equal(t, model.MovementManualAdjustment, res.Movement.MovementType)
	require.NotNil(t, res.Movement.Notes)
	assert.Equal(t, "manual adjustment: decrease", *res.Movement.Notes)
	assert.Equal(t, 4, f.product(t, "p1").StockQuantity)
	assert.Len(t, f.published.Events(), 1)
}

func TestManualAdjustment_SignificanceWithoutConfirmation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)

	res, err := f.uc.CreateManualAdjustment(context.Background(), decrease("p1", 3, false))
	require.NoError(t, err)
	assert.False(t, res.RequiresConfirmation)
	assert.True(t, res.IsSignificant)
	assert.Equal(t, 7, res.Product.StockQuantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(res.ValueImpact.PreviousValue))
	assert.True(t, decimal.NewFromInt(700).Equal(res.ValueImpact.NewValue))

	res, err = f.uc.CreateManualAdjustment(context.Background(), &dto.AdjustmentInput{
		ProductID: "p1", Direction: dto.AdjustmentIncrease, Quantity: 1,
		Reason: "found behind shelf 4B", UserID: testUser,
	})
	require.NoError(t, err)
	assert.False(t, res.IsSignificant)
	assert.Equal(t, 8, res.Product.StockQuantity)
}

func TestManualAdjustment_LargeIncreaseNeverNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 2)

	res, err := f.uc.CreateManualAdjustment(context.Background(), &dto.AdjustmentInput{
		ProductID: "p1", Direction: dto.AdjustmentIncrease, Quantity: 50,
		Reason: "supplier delivery recount", UserID: testUser,
	})
	require.NoError(t, err)
	assert.False(t, res.RequiresConfirmation)
	assert.True(t, res.IsSignificant)
	assert.Equal(t, 52, res.Product.StockQuantity)
}

func TestManualAdjustment_Validation(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 5)

	cases := []struct {
		name  string
		input *dto.AdjustmentInput
	}{
		{"zero quantity", &dto.AdjustmentInput{ProductID: "p1", Direction: dto.AdjustmentIncrease, Quantity: 0, Reason: "a valid reason here", UserID: testUser}},
		{"short reason", &dto.AdjustmentInput{ProductID: "p1", Direction: dto.AdjustmentIncrease, Quantity: 1, Reason: "  broken  ", UserID: testUser}},
		{"long reason", &dto.AdjustmentInput{ProductID: "p1", Direction: dto.AdjustmentIncrease, Quantity: 1, Reason: strings.Repeat("x", 501), UserID: testUser}},
		{"unknown direction", &dto.AdjustmentInput{ProductID: "p1", Direction: "sideways", Quantity: 1, Reason: "a valid reason here", UserID: testUser}},
		{"negative result", decrease("p1", 6, true)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateManualAdjustment(context.Background(), tc.input)
			var adjErr *apperror.AdjustmentValidationError
			require.True(t, errors.As(err, &adjErr), "got %v", err)
		})
	}
	assert.Equal(t, 5, f.product(t, "p1").StockQuantity)
	assert.Len(t, f.movements(t, "p1"), 1)
}

func TestListAdjustments(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 10)
	ctx := context.Background()

	_, err := f.uc.CreateManualAdjustment(ctx, decrease("p1", 1, false))
	require.NoError(t, err)
	_, err = f.uc.UpdateStock(ctx, sale("p1", 1))
	require.NoError(t, err)

	items, err := f.uc.ListAdjustments(ctx, &dto.AdjustmentFilters{ProductID: "p1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.MovementManualAdjustment, items[0].MovementType)
}
