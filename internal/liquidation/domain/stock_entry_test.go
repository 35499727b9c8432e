package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertQuantity(t *testing.T, want, got Quantity) {
	t.Helper()
	assert.Equal(t, want.Volume, got.Volume, "volume")
	assert.Truef(t, want.Value.Equal(got.Value), "value: want %s, got %s", want.Value, got.Value)
}

func requireCode(t *testing.T, err error, code ErrorCode) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, code, v.Code)
	return v
}

func TestComputeDerivedReferenceScenario(t *testing.T) {
	d := ComputeDerived(
		MustQuantity(40, "0.38"),
		MustQuantity(310, "1.93"),
		MustQuantity(140, "0.93"),
		Quantity{},
	)

	assertQuantity(t, MustQuantity(140, "0.93"), d.TotalLiquidation)
	assertQuantity(t, MustQuantity(210, "1.38"), d.BalanceStock)
	assert.Equal(t, int64(40), d.LiquidationPercentage)
}

func TestComputeDerivedFloorsBalance(t *testing.T) {
	d := ComputeDerived(MustQuantity(10, "1"), Quantity{}, MustQuantity(12, "2"), MustQuantity(3, "0.5"))

	assertQuantity(t, MustQuantity(15, "2.5"), d.TotalLiquidation)
	assertQuantity(t, Quantity{}, d.BalanceStock)
	assert.Equal(t, int64(150), d.LiquidationPercentage)
}

func TestLiquidationPercentage(t *testing.T) {
	tests := []struct {
		name       string
		liquidated int64
		available  int64
		want       int64
	}{
		{name: "reference", liquidated: 140, available: 350, want: 40},
		{name: "nothing available nothing sold", liquidated: 0, available: 0, want: 0},
		{name: "zero denominator uses one", liquidated: 5, available: 0, want: 500},
		{name: "above hundred is not clamped", liquidated: 400, available: 350, want: 114},
		{name: "rounds down", liquidated: 1, available: 3, want: 33},
		{name: "rounds up", liquidated: 2, available: 3, want: 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LiquidationPercentage(tt.liquidated, tt.available))
		})
	}
}

func TestNewStockEntry(t *testing.T) {
	t.Run("current defaults to opening plus ytd", func(t *testing.T) {
		e, err := NewStockEntry("D1", "SKU-1", MustQuantity(40, "0.38"), MustQuantity(310, "1.93"), nil)
		require.NoError(t, err)

		assertQuantity(t, MustQuantity(350, "2.31"), e.CurrentStock)
		assertQuantity(t, MustQuantity(350, "2.31"), e.BalanceStock)
		assert.Equal(t, StatusIdle, e.Reconciliation.Status)
		assert.NoError(t, ValidateMetrics(e))
	})

	t.Run("explicit current stock", func(t *testing.T) {
		current := MustQuantity(100, "0.5")
		e, err := NewStockEntry("D1", "SKU-1", MustQuantity(40, "0.38"), MustQuantity(310, "1.93"), &current)
		require.NoError(t, err)
		assertQuantity(t, current, e.CurrentStock)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewStockEntry("D1", "", Quantity{}, Quantity{}, nil)
		requireCode(t, err, CodeMissingField)

		_, err = NewStockEntry("D1", "SKU-1", Quantity{Volume: -1}, Quantity{}, nil)
		v := requireCode(t, err, CodeNegativeQuantity)
		assert.Equal(t, "opening_stock.volume", v.Field)

		_, err = NewStockEntry("D1", "SKU-1", Quantity{}, MustQuantity(1, "-0.01"), nil)
		v = requireCode(t, err, CodeNegativeQuantity)
		assert.Equal(t, "ytd_net_sales.value", v.Field)
	})
}

func TestValidateMetrics(t *testing.T) {
	e, err := NewStockEntry("D1", "SKU-1", MustQuantity(40, "0.38"), MustQuantity(310, "1.93"), nil)
	require.NoError(t, err)
	e.LiquidatedToFarmer = MustQuantity(140, "0.93")
	e = e.Recompute()
	require.NoError(t, ValidateMetrics(e))

	t.Run("balance volume drift", func(t *testing.T) {
		bad := e
		bad.BalanceStock.Volume++
		err := ValidateMetrics(bad)
		var iv *InvariantViolation
		require.ErrorAs(t, err, &iv)
		assert.Equal(t, "balance_stock.volume", iv.Invariant)
		assert.Equal(t, "210", iv.Expected)
		assert.Equal(t, "211", iv.Actual)
	})

	t.Run("value within tolerance", func(t *testing.T) {
		ok := e
		ok.BalanceStock.Value = ok.BalanceStock.Value.Add(decimal.RequireFromString("0.01"))
		assert.NoError(t, ValidateMetrics(ok))
	})

	t.Run("value beyond tolerance", func(t *testing.T) {
		bad := e
		bad.TotalLiquidation.Value = bad.TotalLiquidation.Value.Add(decimal.RequireFromString("0.02"))
		assert.True(t, IsInvariantViolation(ValidateMetrics(bad)))
	})

	t.Run("percentage tolerance is one point", func(t *testing.T) {
		ok := e
		ok.LiquidationPercentage = 41
		assert.NoError(t, ValidateMetrics(ok))

		bad := e
		bad.LiquidationPercentage = 42
		assert.True(t, IsInvariantViolation(ValidateMetrics(bad)))
	})
}

func newTestEntry(t *testing.T, volume int64, value string) StockEntry {
	t.Helper()
	e, err := NewStockEntry("D1", "SKU-1", MustQuantity(volume, value), Quantity{}, nil)
	require.NoError(t, err)
	return e
}

func TestAddNetSales(t *testing.T) {
	e := newTestEntry(t, 100, "50")

	updated, err := e.AddNetSales(MustQuantity(20, "10"))
	require.NoError(t, err)
	assertQuantity(t, MustQuantity(20, "10"), updated.YTDNetSales)
	assertQuantity(t, MustQuantity(120, "60"), updated.CurrentStock)
	assertQuantity(t, MustQuantity(120, "60"), updated.BalanceStock)

	_, err = e.AddNetSales(Quantity{Volume: -5})
	requireCode(t, err, CodeNegativeQuantity)

	pending, _, err := e.RecordStockCount(80, Documents{}, testNow)
	require.NoError(t, err)
	_, err = pending.AddNetSales(MustQuantity(1, "1"))
	requireCode(t, err, CodeReconciliationPending)
}

func TestAddDirectFarmerSale(t *testing.T) {
	e := newTestEntry(t, 100, "50")

	updated, err := e.AddDirectFarmerSale(Quantity{Volume: 10})
	require.NoError(t, err)
	assertQuantity(t, MustQuantity(10, "5"), updated.LiquidatedToFarmer)
	assertQuantity(t, MustQuantity(90, "45"), updated.CurrentStock)
	assertQuantity(t, MustQuantity(90, "45"), updated.BalanceStock)
	assert.Equal(t, int64(10), updated.LiquidationPercentage)

	_, err = e.AddDirectFarmerSale(Quantity{Volume: 101})
	v := requireCode(t, err, CodeExceedsAvailable)
	assert.Equal(t, int64(-1), v.Shortfall())

	_, err = e.AddDirectFarmerSale(Quantity{})
	requireCode(t, err, CodeMissingField)
}

func TestAddRetailerFarmerSaleReducesBalance(t *testing.T) {
	e := newTestEntry(t, 100, "50")
	e.HeldByRetailers = MustQuantity(20, "0.24")
	require.Equal(t, int64(0), e.LiquidatedViaRetailer.Volume)

	updated, err := e.AddRetailerFarmerSale(MustQuantity(15, "0.18"), MustQuantity(15, "0.18"))
	require.NoError(t, err)

	assertQuantity(t, MustQuantity(15, "0.18"), updated.LiquidatedViaRetailer)
	assertQuantity(t, MustQuantity(5, "0.06"), updated.HeldByRetailers)
	assert.Equal(t, e.BalanceStock.Volume-15, updated.BalanceStock.Volume)
	assert.True(t, e.BalanceStock.Value.Sub(decimal.RequireFromString("0.18")).Equal(updated.BalanceStock.Value))
	assertQuantity(t, e.CurrentStock, updated.CurrentStock)
}

func TestAddRetailerFarmerSaleWithoutAllocations(t *testing.T) {
	e := newTestEntry(t, 100, "50")

	updated, err := e.AddRetailerFarmerSale(MustQuantity(10, "5"), Quantity{})
	require.NoError(t, err)
	assertQuantity(t, MustQuantity(10, "5"), updated.LiquidatedViaRetailer)
	assertQuantity(t, Quantity{}, updated.HeldByRetailers)

	_, err = e.AddRetailerFarmerSale(MustQuantity(10, "5"), MustQuantity(11, "5"))
	requireCode(t, err, CodeExceedsAvailable)
}

func TestCorrectOpeningStock(t *testing.T) {
	e := newTestEntry(t, 100, "50")

	updated, err := e.CorrectOpeningStock(MustQuantity(80, "40"))
	require.NoError(t, err)
	assertQuantity(t, MustQuantity(80, "40"), updated.OpeningStock)
	assertQuantity(t, e.CurrentStock, updated.CurrentStock)
	assertQuantity(t, MustQuantity(80, "40"), updated.BalanceStock)
}
