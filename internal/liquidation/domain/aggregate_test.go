package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryWith(t *testing.T, dealerID, sku string, opening, ytd, farmer, viaRetailer Quantity) StockEntry {
	t.Helper()
	e, err := NewStockEntry(dealerID, sku, opening, ytd, nil)
	require.NoError(t, err)
	e.LiquidatedToFarmer = farmer
	e.LiquidatedViaRetailer = viaRetailer
	return e.Recompute()
}

func TestBuildDistributorAggregate(t *testing.T) {
	distributor := Dealer{ID: "D1", Name: "North", Type: DealerDistributor, Active: true}
	retailers := []Dealer{
		{ID: "R2", Name: "Two", Type: DealerRetailer, DistributorID: "D1", Active: false},
		{ID: "R1", Name: "One", Type: DealerRetailer, DistributorID: "D1", Active: true},
		{ID: "RX", Name: "Other", Type: DealerRetailer, DistributorID: "D9", Active: true},
	}
	entries := []StockEntry{
		entryWith(t, "D1", "A", MustQuantity(40, "0.38"), MustQuantity(310, "1.93"), MustQuantity(100, "0.60"), MustQuantity(40, "0.33")),
		entryWith(t, "D1", "B", MustQuantity(100, "10"), Quantity{}, MustQuantity(10, "1"), Quantity{}),
	}
	entries[1].Reconciliation.Status = StatusPendingClassification
	retailerEntries := []StockEntry{
		entryWith(t, "R1", "A", MustQuantity(50, "5"), Quantity{}, MustQuantity(15, "0.18"), Quantity{}),
		entryWith(t, "RX", "A", MustQuantity(50, "5"), Quantity{}, MustQuantity(99, "9"), Quantity{}),
	}

	agg := BuildDistributorAggregate(distributor, entries, retailers, retailerEntries)

	assert.Equal(t, 2, agg.SKUCount)
	assert.Equal(t, 1, agg.PendingReconciliations)
	assertQuantity(t, MustQuantity(140, "10.38"), agg.OpeningStock)
	assertQuantity(t, MustQuantity(110, "1.60"), agg.LiquidatedToFarmer)
	assertQuantity(t, MustQuantity(40, "0.33"), agg.LiquidatedViaRetailer)
	assertQuantity(t, MustQuantity(150, "1.93"), agg.TotalLiquidation)
	assertQuantity(t, MustQuantity(300, "10.38"), agg.BalanceStock)
	assert.Equal(t, LiquidationPercentage(150, 450), agg.LiquidationPercentage)

	// retailer sales are shown, never added into the distributor totals
	require.Len(t, agg.Retailers, 2)
	assert.Equal(t, "R1", agg.Retailers[0].RetailerID)
	assertQuantity(t, MustQuantity(15, "0.18"), agg.Retailers[0].LiquidatedToFarmer)
	assert.Equal(t, "R2", agg.Retailers[1].RetailerID)
	assert.False(t, agg.Retailers[1].Active)
	assertQuantity(t, Quantity{}, agg.Retailers[1].LiquidatedToFarmer)
}

func TestAggregateOverallMetricsMatchesEntrySums(t *testing.T) {
	d1 := Dealer{ID: "D1", Type: DealerDistributor, Active: true}
	d2 := Dealer{ID: "D2", Type: DealerDistributor, Active: false}
	e1 := entryWith(t, "D1", "A", MustQuantity(40, "0.38"), MustQuantity(310, "1.93"), MustQuantity(140, "0.93"), Quantity{})
	e2 := entryWith(t, "D2", "A", MustQuantity(60, "6"), MustQuantity(40, "4"), MustQuantity(20, "2"), MustQuantity(30, "3"))

	m := AggregateOverallMetrics([]DistributorAggregate{
		BuildDistributorAggregate(d1, []StockEntry{e1}, nil, nil),
		BuildDistributorAggregate(d2, []StockEntry{e2}, nil, nil),
	})

	assert.Equal(t, 2, m.Distributors)
	assert.Equal(t, 1, m.ActiveDistributors)
	assertQuantity(t, e1.OpeningStock.Add(e2.OpeningStock), m.OpeningStock)
	assertQuantity(t, e1.YTDNetSales.Add(e2.YTDNetSales), m.YTDNetSales)
	assertQuantity(t, e1.TotalLiquidation.Add(e2.TotalLiquidation), m.TotalLiquidation)
	assertQuantity(t, e1.BalanceStock.Add(e2.BalanceStock), m.BalanceStock)
	assert.Equal(t, LiquidationPercentage(190, 450), m.LiquidationPercentage)
}

func TestOverLiquidatedEntryDoesNotHideOtherStock(t *testing.T) {
	d1 := Dealer{ID: "D1", Type: DealerDistributor, Active: true}
	d2 := Dealer{ID: "D2", Type: DealerDistributor, Active: true}

	// A sold more than it ever had; its balance floors at zero
	over := entryWith(t, "D1", "A", MustQuantity(10, "5"), Quantity{}, MustQuantity(30, "15"), Quantity{})
	held := entryWith(t, "D1", "B", MustQuantity(100, "50"), Quantity{}, MustQuantity(10, "5"), Quantity{})
	require.Equal(t, int64(0), over.BalanceStock.Volume)

	agg := BuildDistributorAggregate(d1, []StockEntry{over, held}, nil, nil)
	assertQuantity(t, MustQuantity(90, "45"), agg.BalanceStock)
	assertQuantity(t, MustQuantity(40, "20"), agg.TotalLiquidation)
	assert.Equal(t, LiquidationPercentage(40, 110), agg.LiquidationPercentage)

	// D2 is over-liquidated as a whole
	other := entryWith(t, "D2", "A", MustQuantity(20, "10"), Quantity{}, MustQuantity(50, "25"), Quantity{})
	m := AggregateOverallMetrics([]DistributorAggregate{agg, BuildDistributorAggregate(d2, []StockEntry{other}, nil, nil)})
	assertQuantity(t, MustQuantity(90, "45"), m.BalanceStock)
	assertQuantity(t, MustQuantity(90, "45"), m.TotalLiquidation)
	assert.Equal(t, LiquidationPercentage(90, 130), m.LiquidationPercentage)
}

func TestAggregateSumsHeldByRetailers(t *testing.T) {
	d1 := Dealer{ID: "D1", Type: DealerDistributor, Active: true}
	e := entryWith(t, "D1", "A", MustQuantity(100, "50"), Quantity{}, Quantity{}, Quantity{})
	e.HeldByRetailers = MustQuantity(30, "15")

	agg := BuildDistributorAggregate(d1, []StockEntry{e}, nil, nil)
	assertQuantity(t, MustQuantity(30, "15"), agg.HeldByRetailers)
	assertQuantity(t, MustQuantity(100, "50"), agg.BalanceStock)
	assertQuantity(t, MustQuantity(30, "15"), AggregateOverallMetrics([]DistributorAggregate{agg}).HeldByRetailers)
}

func TestAggregateOverallMetricsEmpty(t *testing.T) {
	m := AggregateOverallMetrics(nil)
	assert.Equal(t, 0, m.Distributors)
	assert.Equal(t, int64(0), m.LiquidationPercentage)
	assertQuantity(t, Quantity{}, m.BalanceStock)
}
