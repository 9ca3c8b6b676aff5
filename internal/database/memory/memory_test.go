package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	s := NewStore()
	s.PutProduct(model.Product{BaseModel: model.BaseModel{ID: "p1"}, StockQuantity: 5})

	err := s.Update(context.Background(), func(st *State) error {
		p := st.Products["p1"]
		p.StockQuantity = 0
		st.Products["p1"] = p
		st.Movements = append(st.Movements, model.InventoryMovement{ID: "m1"})
		return errors.New("boom")
	})
	require.Error(t, err)

	_ = s.View(context.Background(), func(st *State) error {
		assert.Equal(t, 5, st.Products["p1"].StockQuantity)
		assert.Empty(t, st.Movements)
		return nil
	})
}

func TestStore_UpdateCommits(t *testing.T) {
	s := NewStore()
	s.PutUser("u1", "Ana")
	uid := "u1"
	s.PutProduct(model.Product{BaseModel: model.BaseModel{ID: "p1"}, StockQuantity: 5, LastUpdatedByID: &uid})

	require.NoError(t, s.Update(context.Background(), func(st *State) error {
		p := st.Products["p1"]
		p.StockQuantity = 7
		st.Products["p1"] = p
		return nil
	}))

	_ = s.View(context.Background(), func(st *State) error {
		p, ok := st.Product("p1")
		require.True(t, ok)
		assert.Equal(t, 7, p.StockQuantity)
		require.NotNil(t, p.LastUpdatedByName)
		assert.Equal(t, "Ana", *p.LastUpdatedByName)
		return nil
	})
}
