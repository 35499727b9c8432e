package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeSale(t *testing.T) {
	assignments := []RetailerAssignment{
		{ID: "a1", AllocatedVolume: 10, AllocatedValue: decimal.NewFromInt(5), SoldVolume: 10},
		{ID: "a2", AllocatedVolume: 20, AllocatedValue: decimal.NewFromInt(10), SoldVolume: 5},
		{ID: "a3", AllocatedVolume: 10, AllocatedValue: decimal.NewFromInt(3)},
	}

	t.Run("oldest first", func(t *testing.T) {
		updated, released, err := ConsumeSale(assignments, 20)
		require.NoError(t, err)
		require.Len(t, updated, 2)
		assert.Equal(t, "a2", updated[0].ID)
		assert.Equal(t, int64(20), updated[0].SoldVolume)
		assert.Equal(t, "a3", updated[1].ID)
		assert.Equal(t, int64(5), updated[1].SoldVolume)
		assert.Equal(t, int64(5), updated[1].Unsold())
		assertQuantity(t, MustQuantity(20, "9"), released)

		// input is untouched
		assert.Equal(t, int64(5), assignments[1].SoldVolume)
	})

	t.Run("exactly the unsold volume", func(t *testing.T) {
		updated, released, err := ConsumeSale(assignments, 25)
		require.NoError(t, err)
		for _, a := range updated {
			assert.Equal(t, int64(0), a.Unsold())
		}
		assertQuantity(t, MustQuantity(25, "10.5"), released)
	})

	t.Run("more than unsold", func(t *testing.T) {
		updated, released, err := ConsumeSale(assignments, 26)
		v := requireCode(t, err, CodeExceedsAvailable)
		assert.Nil(t, updated)
		assertQuantity(t, Quantity{}, released)
		assert.Equal(t, int64(25), *v.Expected)
		assert.Equal(t, int64(26), *v.Given)
	})
}

func TestConsumeSaleReleasesAllocatedValueInSteps(t *testing.T) {
	assignments := []RetailerAssignment{
		{ID: "a1", AllocatedVolume: 3, AllocatedValue: decimal.NewFromInt(1)},
	}

	total := Quantity{}
	for i := 0; i < 3; i++ {
		updated, released, err := ConsumeSale(assignments, 1)
		require.NoError(t, err)
		assignments = updated
		total = total.Add(released)
	}
	// 0.33 + 0.34 + 0.33 telescopes to the allocated value
	assertQuantity(t, MustQuantity(3, "1"), total)
}
