package dto

import "github.com/fekuna/omnipos-inventory-service/internal/model"

type UpdateStockInput struct {
	ProductID       string
	Delta           int
	UserID          string
	MovementType    model.MovementType
	Reason          *string
	Reference       *string
	Notes           *string
	ExpectedVersion *int
}

type SetStockLevelInput struct {
	ProductID   string
	NewQuantity int
	UserID      string
	Reason      string
	Notes       *string
}

type AdjustmentDirection string

const (
	AdjustmentIncrease AdjustmentDirection = "increase"
	AdjustmentDecrease AdjustmentDirection = "decrease"
)

type AdjustmentInput struct {
	ProductID string
	Direction AdjustmentDirection
	Quantity  int
	Reason    string
	UserID    string
	Confirmed bool
}

type BulkReorderInput struct {
	CategoryID        string
	ReorderPoint      int
	OverwriteExisting bool
}
