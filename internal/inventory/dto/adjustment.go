package dto

import (
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type ValueImpact struct {
	PreviousValue decimal.Decimal `json:"previous_value"`
	NewValue      decimal.Decimal `json:"new_value"`
	Impact        decimal.Decimal `json:"impact"`
	CostPrice     decimal.Decimal `json:"cost_price"`
}

// AdjustmentResult with RequiresConfirmation set is a successful call that changed nothing.
type AdjustmentResult struct {
	Product              *model.Product           `json:"product"`
	Movement             *model.InventoryMovement `json:"movement,omitempty"`
	RequiresConfirmation bool                     `json:"requires_confirmation"`
	ValueImpact          ValueImpact              `json:"value_impact"`
	IsSignificant        bool                     `json:"is_significant"`
	Message              string                   `json:"message"`
}
