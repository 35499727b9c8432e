package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// percentageTolerance is how far a stored liquidation percentage may drift
// from its recomputation before ValidateMetrics reports it.
const percentageTolerance = 1

var valueTolerance = decimal.NewFromFloat(0.01)

// Documents records which supporting evidence was attached to a stock count.
// The files themselves live outside the ledger.
type Documents struct {
	Letterhead bool `json:"letterhead" gorm:"not null;default:false"`
	Signature  bool `json:"signature" gorm:"not null;default:false"`
}

// StockEntry is the ledger row for one dealer and one SKU. The derived fields
// are rewritten by Recompute on every mutation and are never set directly.
type StockEntry struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	DealerID string `json:"dealer_id" gorm:"size:64;not null;uniqueIndex:idx_entry_dealer_sku"`
	SKU      string `json:"sku" gorm:"size:64;not null;uniqueIndex:idx_entry_dealer_sku"`

	OpeningStock          Quantity `json:"opening_stock" gorm:"embedded;embeddedPrefix:opening_"`
	YTDNetSales           Quantity `json:"ytd_net_sales" gorm:"embedded;embeddedPrefix:ytd_"`
	LiquidatedToFarmer    Quantity `json:"liquidated_to_farmer" gorm:"embedded;embeddedPrefix:farmer_"`
	LiquidatedViaRetailer Quantity `json:"liquidated_via_retailer" gorm:"embedded;embeddedPrefix:via_retailer_"`
	CurrentStock          Quantity `json:"current_stock" gorm:"embedded;embeddedPrefix:current_"`
	// HeldByRetailers is stock handed to retailers at reconciliation and not
	// yet resold to farmers.
	HeldByRetailers       Quantity `json:"held_by_retailers" gorm:"embedded;embeddedPrefix:held_by_retailers_"`

	TotalLiquidation      Quantity `json:"total_liquidation" gorm:"embedded;embeddedPrefix:total_liquidation_"`
	BalanceStock          Quantity `json:"balance_stock" gorm:"embedded;embeddedPrefix:balance_"`
	LiquidationPercentage int64    `json:"liquidation_percentage" gorm:"not null;default:0"`

	Reconciliation Reconciliation `json:"reconciliation" gorm:"embedded;embeddedPrefix:recon_"`
	Documents      Documents      `json:"documents" gorm:"embedded;embeddedPrefix:docs_"`
	LastCountedAt  *time.Time     `json:"last_counted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (StockEntry) TableName() string {
	return "liquidation_stock_entries"
}

// NewStockEntry opens a ledger row. When current is nil the on-hand stock
// starts at opening plus YTD net sales, since nothing has been liquidated yet.
func NewStockEntry(dealerID, sku string, opening, ytd Quantity, current *Quantity) (StockEntry, error) {
	if dealerID == "" {
		return StockEntry{}, NewValidationError(CodeMissingField, "dealer_id", "dealer id is required")
	}
	if sku == "" {
		return StockEntry{}, NewValidationError(CodeMissingField, "sku", "sku is required")
	}
	if err := opening.Validate("opening_stock"); err != nil {
		return StockEntry{}, err
	}
	if err := ytd.Validate("ytd_net_sales"); err != nil {
		return StockEntry{}, err
	}

	e := StockEntry{
		DealerID:       dealerID,
		SKU:            sku,
		OpeningStock:   opening,
		YTDNetSales:    ytd,
		CurrentStock:   opening.Add(ytd),
		Reconciliation: Reconciliation{Status: StatusIdle},
	}
	if current != nil {
		if err := current.Validate("current_stock"); err != nil {
			return StockEntry{}, err
		}
		e.CurrentStock = *current
	}
	return e.Recompute(), nil
}

// Key returns the dealer×SKU identity.
func (e StockEntry) Key() EntryKey {
	return EntryKey{DealerID: e.DealerID, SKU: e.SKU}
}

// Derived holds the figures computed from the four raw inputs.
type Derived struct {
	TotalLiquidation      Quantity `json:"total_liquidation"`
	BalanceStock          Quantity `json:"balance_stock"`
	LiquidationPercentage int64    `json:"liquidation_percentage"`
}

// ComputeDerived applies the balance and percentage formulas. The percentage
// is not clamped and exceeds 100 when liquidation outruns available stock.
func ComputeDerived(opening, ytd, toFarmer, viaRetailer Quantity) Derived {
	total := toFarmer.Add(viaRetailer)
	available := opening.Add(ytd)
	return Derived{
		TotalLiquidation:      total,
		BalanceStock:          available.Sub(total).FloorZero(),
		LiquidationPercentage: LiquidationPercentage(total.Volume, available.Volume),
	}
}

// LiquidationPercentage is round(liquidated / max(1, available) * 100).
func LiquidationPercentage(liquidated, available int64) int64 {
	denominator := available
	if denominator < 1 {
		denominator = 1
	}
	return int64(math.Round(float64(liquidated) / float64(denominator) * 100))
}

// Derived recomputes the derived figures without touching the entry.
func (e StockEntry) Derived() Derived {
	return ComputeDerived(e.OpeningStock, e.YTDNetSales, e.LiquidatedToFarmer, e.LiquidatedViaRetailer)
}

// Recompute returns a copy of the entry with its derived fields rewritten.
func (e StockEntry) Recompute() StockEntry {
	d := e.Derived()
	e.TotalLiquidation = d.TotalLiquidation
	e.BalanceStock = d.BalanceStock
	e.LiquidationPercentage = d.LiquidationPercentage
	return e
}

// ValidateMetrics recomputes the derived fields from the raw inputs and
// compares them with what the entry carries. Volumes must match exactly,
// values within 0.01 and the percentage within one point.
func ValidateMetrics(e StockEntry) error {
	d := e.Derived()

	violation := func(invariant, expected, actual string) error {
		return &InvariantViolation{
			DealerID:  e.DealerID,
			SKU:       e.SKU,
			Invariant: invariant,
			Expected:  expected,
			Actual:    actual,
		}
	}

	if d.TotalLiquidation.Volume != e.TotalLiquidation.Volume {
		return violation("total_liquidation.volume",
			fmt.Sprint(d.TotalLiquidation.Volume), fmt.Sprint(e.TotalLiquidation.Volume))
	}
	if d.BalanceStock.Volume != e.BalanceStock.Volume {
		return violation("balance_stock.volume",
			fmt.Sprint(d.BalanceStock.Volume), fmt.Sprint(e.BalanceStock.Volume))
	}
	if d.TotalLiquidation.Value.Sub(e.TotalLiquidation.Value).Abs().GreaterThan(valueTolerance) {
		return violation("total_liquidation.value",
			d.TotalLiquidation.Value.String(), e.TotalLiquidation.Value.String())
	}
	if d.BalanceStock.Value.Sub(e.BalanceStock.Value).Abs().GreaterThan(valueTolerance) {
		return violation("balance_stock.value",
			d.BalanceStock.Value.String(), e.BalanceStock.Value.String())
	}
	diff := d.LiquidationPercentage - e.LiquidationPercentage
	if diff > percentageTolerance || diff < -percentageTolerance {
		return violation("liquidation_percentage",
			fmt.Sprint(d.LiquidationPercentage), fmt.Sprint(e.LiquidationPercentage))
	}
	return nil
}

// valuationUnit is the per-unit value used when the ledger has to price a
// volume it was given without a value: the current stock's unit value, or the
// available stock's when nothing is on hand.
func (e StockEntry) valuationUnit() decimal.Decimal {
	if e.CurrentStock.Volume > 0 {
		return e.CurrentStock.unitValue()
	}
	return e.OpeningStock.Add(e.YTDNetSales).unitValue()
}

func (e StockEntry) valueOf(volume int64) decimal.Decimal {
	return e.valuationUnit().Mul(decimal.NewFromInt(volume)).Round(ValueScale)
}

func (e StockEntry) ensureNotPending() error {
	if e.Reconciliation.Status == StatusPendingClassification {
		return NewValidationError(CodeReconciliationPending, "reconciliation",
			"a stock count reconciliation is pending classification")
	}
	return nil
}

// AddNetSales records net sales into the dealer. Both YTD sales and on-hand
// stock grow by the same quantity.
func (e StockEntry) AddNetSales(q Quantity) (StockEntry, error) {
	if err := q.Validate("net_sales"); err != nil {
		return e, err
	}
	if err := e.ensureNotPending(); err != nil {
		return e, err
	}
	e.YTDNetSales = e.YTDNetSales.Add(q)
	e.CurrentStock = e.CurrentStock.Add(q)
	return e.Recompute(), nil
}

// CorrectOpeningStock replaces the opening snapshot. It is a corrective
// administrative action and leaves the physically verified stock alone.
func (e StockEntry) CorrectOpeningStock(q Quantity) (StockEntry, error) {
	if err := q.Validate("opening_stock"); err != nil {
		return e, err
	}
	e.OpeningStock = q
	return e.Recompute(), nil
}

// AddDirectFarmerSale books a dealer→farmer sale made outside a stock count.
// A zero value is priced at the entry's valuation unit.
func (e StockEntry) AddDirectFarmerSale(q Quantity) (StockEntry, error) {
	if err := q.Validate("farmer_sale"); err != nil {
		return e, err
	}
	if q.Volume == 0 {
		return e, NewValidationError(CodeMissingField, "farmer_sale.volume", "volume must be positive")
	}
	if err := e.ensureNotPending(); err != nil {
		return e, err
	}
	if q.Volume > e.CurrentStock.Volume {
		return e, NewMismatchError(CodeExceedsAvailable, "farmer_sale.volume", e.CurrentStock.Volume, q.Volume)
	}
	if q.Value.IsZero() {
		q.Value = e.valueOf(q.Volume)
	}
	e.LiquidatedToFarmer = e.LiquidatedToFarmer.Add(q)
	e.CurrentStock = e.CurrentStock.Sub(q).FloorZero()
	return e.Recompute(), nil
}

// AddRetailerFarmerSale attributes a retailer's farmer sale to this
// distributor entry. released is the part of the sale drawn from stock the
// distributor handed over at reconciliation; it leaves HeldByRetailers.
func (e StockEntry) AddRetailerFarmerSale(q, released Quantity) (StockEntry, error) {
	if err := q.Validate("retailer_sale"); err != nil {
		return e, err
	}
	if q.Volume == 0 {
		return e, NewValidationError(CodeMissingField, "retailer_sale.volume", "volume must be positive")
	}
	if released.Volume > q.Volume {
		return e, NewMismatchError(CodeExceedsAvailable, "retailer_sale.released", q.Volume, released.Volume)
	}
	e.LiquidatedViaRetailer = e.LiquidatedViaRetailer.Add(q)
	e.HeldByRetailers = e.HeldByRetailers.Sub(released).FloorZero()
	return e.Recompute(), nil
}
