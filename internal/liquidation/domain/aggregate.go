package domain

import "sort"

// RetailerLiquidation is a retailer's own farmer sales as seen from its
// distributor. It is a read-only back-reference and is not added into the
// distributor's totals.
type RetailerLiquidation struct {
	RetailerID         string   `json:"retailer_id"`
	Name               string   `json:"name"`
	Active             bool     `json:"active"`
	LiquidatedToFarmer Quantity `json:"liquidated_to_farmer"`
}

// DistributorAggregate is the distributor-level view: the sum of the
// distributor's own entries. Balance and total liquidation are sums of the
// entries' own figures, so an over-liquidated entry cannot hide another
// entry's stock; only the percentage is taken over the summed volumes.
type DistributorAggregate struct {
	DistributorID          string                `json:"distributor_id"`
	Name                   string                `json:"name"`
	Active                 bool                  `json:"active"`
	SKUCount               int                   `json:"sku_count"`
	PendingReconciliations int                   `json:"pending_reconciliations"`
	OpeningStock           Quantity              `json:"opening_stock"`
	YTDNetSales            Quantity              `json:"ytd_net_sales"`
	LiquidatedToFarmer     Quantity              `json:"liquidated_to_farmer"`
	LiquidatedViaRetailer  Quantity              `json:"liquidated_via_retailer"`
	HeldByRetailers        Quantity              `json:"held_by_retailers"`
	CurrentStock           Quantity              `json:"current_stock"`
	TotalLiquidation       Quantity              `json:"total_liquidation"`
	BalanceStock           Quantity              `json:"balance_stock"`
	LiquidationPercentage  int64                 `json:"liquidation_percentage"`
	Retailers              []RetailerLiquidation `json:"retailers"`
}

// BuildDistributorAggregate folds the distributor's entries. retailerEntries
// may hold entries of any of the given retailers; entries of unknown dealers
// are ignored.
func BuildDistributorAggregate(distributor Dealer, entries []StockEntry, retailers []Dealer, retailerEntries []StockEntry) DistributorAggregate {
	agg := DistributorAggregate{
		DistributorID: distributor.ID,
		Name:          distributor.Name,
		Active:        distributor.Active,
	}

	for _, e := range entries {
		if e.DealerID != distributor.ID {
			continue
		}
		agg.SKUCount++
		if e.Reconciliation.Status == StatusPendingClassification {
			agg.PendingReconciliations++
		}
		agg.OpeningStock = agg.OpeningStock.Add(e.OpeningStock)
		agg.YTDNetSales = agg.YTDNetSales.Add(e.YTDNetSales)
		agg.LiquidatedToFarmer = agg.LiquidatedToFarmer.Add(e.LiquidatedToFarmer)
		agg.LiquidatedViaRetailer = agg.LiquidatedViaRetailer.Add(e.LiquidatedViaRetailer)
		agg.HeldByRetailers = agg.HeldByRetailers.Add(e.HeldByRetailers)
		agg.CurrentStock = agg.CurrentStock.Add(e.CurrentStock)
		agg.TotalLiquidation = agg.TotalLiquidation.Add(e.TotalLiquidation)
		agg.BalanceStock = agg.BalanceStock.Add(e.BalanceStock)
	}
	agg.LiquidationPercentage = LiquidationPercentage(agg.TotalLiquidation.Volume, agg.OpeningStock.Add(agg.YTDNetSales).Volume)

	byID := make(map[string]*RetailerLiquidation, len(retailers))
	agg.Retailers = make([]RetailerLiquidation, 0, len(retailers))
	for _, r := range retailers {
		if r.DistributorID != distributor.ID {
			continue
		}
		agg.Retailers = append(agg.Retailers, RetailerLiquidation{RetailerID: r.ID, Name: r.Name, Active: r.Active})
	}
	sort.Slice(agg.Retailers, func(i, j int) bool { return agg.Retailers[i].RetailerID < agg.Retailers[j].RetailerID })
	for i := range agg.Retailers {
		byID[agg.Retailers[i].RetailerID] = &agg.Retailers[i]
	}
	for _, e := range retailerEntries {
		if r, ok := byID[e.DealerID]; ok {
			r.LiquidatedToFarmer = r.LiquidatedToFarmer.Add(e.LiquidatedToFarmer)
		}
	}

	return agg
}

// OverallMetrics is the portfolio view across every distributor.
type OverallMetrics struct {
	Distributors          int      `json:"distributors"`
	ActiveDistributors    int      `json:"active_distributors"`
	OpeningStock          Quantity `json:"opening_stock"`
	YTDNetSales           Quantity `json:"ytd_net_sales"`
	LiquidatedToFarmer    Quantity `json:"liquidated_to_farmer"`
	LiquidatedViaRetailer Quantity `json:"liquidated_via_retailer"`
	HeldByRetailers       Quantity `json:"held_by_retailers"`
	TotalLiquidation      Quantity `json:"total_liquidation"`
	BalanceStock          Quantity `json:"balance_stock"`
	LiquidationPercentage int64    `json:"liquidation_percentage"`
}

// AggregateOverallMetrics is a pure fold over distributor aggregates. Like the
// distributor view, balance is the sum of the children's balances.
func AggregateOverallMetrics(distributors []DistributorAggregate) OverallMetrics {
	var m OverallMetrics
	for _, d := range distributors {
		m.Distributors++
		if d.Active {
			m.ActiveDistributors++
		}
		m.OpeningStock = m.OpeningStock.Add(d.OpeningStock)
		m.YTDNetSales = m.YTDNetSales.Add(d.YTDNetSales)
		m.LiquidatedToFarmer = m.LiquidatedToFarmer.Add(d.LiquidatedToFarmer)
		m.LiquidatedViaRetailer = m.LiquidatedViaRetailer.Add(d.LiquidatedViaRetailer)
		m.HeldByRetailers = m.HeldByRetailers.Add(d.HeldByRetailers)
		m.TotalLiquidation = m.TotalLiquidation.Add(d.TotalLiquidation)
		m.BalanceStock = m.BalanceStock.Add(d.BalanceStock)
	}
	m.LiquidationPercentage = LiquidationPercentage(m.TotalLiquidation.Volume, m.OpeningStock.Add(m.YTDNetSales).Volume)
	return m
}
