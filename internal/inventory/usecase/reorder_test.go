package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestReorderPoint_FromSales(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 200)
	ctx := context.Background()

	// A sale older than the window must not count.
	f.uc.now = func() time.Time { return testNow.AddDate(0, 0, -45) }
	_, err := f.uc.UpdateStock(ctx, sale("p1", 100))
	require.NoError(t, err)

	f.uc.now = func() time.Time { return testNow.AddDate(0, 0, -3) }
	_, err = f.uc.UpdateStock(ctx, sale("p1", 30))
	require.NoError(t, err)
	_, err = f.uc.UpdateStock(ctx, sale("p1", 15))
	require.NoError(t, err)

	f.uc.now = func() time.Time { return testNow }
	s, err := f.uc.SuggestReorderPoint(ctx, "p1", 7, 3)
	require.NoError(t, err)

	// 45 units / 30 days = 1.5 per day: ceil(10.5) + ceil(4.5) = 11 + 5.
	assert.Equal(t, 45, s.TotalSold)
	assert.Equal(t, 1.5, s.AverageDailySales)
	assert.Equal(t, 5, s.SafetyStock)
	assert.Equal(t, 16, s.SuggestedReorderPoint)
	assert.False(t, s.UsedFallback)
}

func TestSuggestReorderPoint_FallbackWithoutSales(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 20)

	s, err := f.uc.SuggestReorderPoint(context.Background(), "p1", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 10, s.SuggestedReorderPoint)
	assert.True(t, s.UsedFallback)
	assert.Equal(t, 7, s.LeadTimeDays)
	assert.Equal(t, 3, s.SafetyStockDays)
}

func TestBulkUpdateReorderPoints(t *testing.T) {
	f := newFixture(t)
	cat := "cat-tools"
	inCategory := func(p *model.Product) { p.CategoryID = &cat }
	f.seedProduct(t, "p1", 5, inCategory)
	f.seedProduct(t, "p2", 5, inCategory, func(p *model.Product) { p.ReorderPoint = 25 })
	f.seedProduct(t, "p3", 5)
	ctx := context.Background()

	res, err := f.uc.BulkUpdateReorderPoints(ctx, &dto.BulkReorderInput{CategoryID: cat, ReorderPoint: 40})
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, "p1", res.Updated[0].ProductID)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "p2", res.Skipped[0].ProductID)
	assert.Equal(t, 40, f.product(t, "p1").ReorderPoint)
	assert.Equal(t, 25, f.product(t, "p2").ReorderPoint)
	assert.Equal(t, 10, f.product(t, "p3").ReorderPoint)

	res, err = f.uc.BulkUpdateReorderPoints(ctx, &dto.BulkReorderInput{CategoryID: cat, ReorderPoint: 50, OverwriteExisting: true})
	require.NoError(t, err)
	assert.Len(t, res.Updated, 2)
	assert.Equal(t, 50, f.product(t, "p2").ReorderPoint)
}

func TestBulkUpdateReorderPoints_RejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	for _, v := range []int{-1, 10001} {
		_, err := f.uc.BulkUpdateReorderPoints(context.Background(), &dto.BulkReorderInput{CategoryID: "c", ReorderPoint: v})
		var validation *apperror.ValidationError
		assert.True(t, errors.As(err, &validation))
	}
}

func TestValidateReorderPoint(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p1", 8)
	ctx := context.Background()

	v, err := f.uc.ValidateReorderPoint(ctx, "p1", 12)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.NotEmpty(t, v.Warning)

	v, err = f.uc.ValidateReorderPoint(ctx, "", 0)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.NotEmpty(t, v.Warning)

	v, err = f.uc.ValidateReorderPoint(ctx, "", 20000)
	require.NoError(t, err)
	assert.False(t, v.Valid)
}

func TestListAtOrBelowReorderPoint(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "low", 4)
	f.seedProduct(t, "ok", 40)
	f.seedProduct(t, "empty", 0)

	products, err := f.uc.ListAtOrBelowReorderPoint(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "empty", products[0].ID)
	assert.Equal(t, "low", products[1].ID)
}
