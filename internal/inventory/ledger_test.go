package inventory

import (
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mv(prev, qty int) model.InventoryMovement {
	return model.InventoryMovement{PreviousStock: prev, Quantity: qty, NewStock: prev + qty}
}

func TestReplayLedger(t *testing.T) {
	stock, err := ReplayLedger([]model.InventoryMovement{mv(0, 20), mv(20, -5), mv(15, 5), mv(20, -20)})
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	stock, err = ReplayLedger(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestReplayLedger_DetectsBrokenChain(t *testing.T) {
	_, err := ReplayLedger([]model.InventoryMovement{mv(0, 20), mv(18, -5)})
	assert.ErrorContains(t, err, "starts at 18")

	bad := mv(20, -5)
	bad.NewStock = 14
	_, err = ReplayLedger([]model.InventoryMovement{mv(0, 20), bad})
	assert.ErrorContains(t, err, "does not balance")
}
