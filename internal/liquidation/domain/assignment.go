package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RetailerAssignment records how much of a reconciliation's retailer portion
// a named retailer received, and how much of it the retailer has since sold
// to farmers.
type RetailerAssignment struct {
	ID              string          `json:"id" gorm:"primaryKey;size:36"`
	DistributorID   string          `json:"distributor_id" gorm:"size:64;not null;index:idx_assignment_lookup"`
	RetailerID      string          `json:"retailer_id" gorm:"size:64;not null;index:idx_assignment_lookup"`
	SKU             string          `json:"sku" gorm:"size:64;not null;index:idx_assignment_lookup"`
	AllocatedVolume int64           `json:"allocated_volume" gorm:"not null"`
	AllocatedValue  decimal.Decimal `json:"allocated_value" gorm:"type:numeric(18,4);not null"`
	SoldVolume      int64           `json:"sold_volume" gorm:"not null;default:0"`
	ReconciledAt    time.Time       `json:"reconciled_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (RetailerAssignment) TableName() string {
	return "liquidation_retailer_assignments"
}

// Unsold is the allocated volume the retailer has not yet sold to farmers.
func (a RetailerAssignment) Unsold() int64 {
	return a.AllocatedVolume - a.SoldVolume
}

// ConsumeSale draws volume from the assignments oldest first and returns the
// touched assignments with the quantity released from them, valued at the
// assignments' allocated value. It fails without modifying anything when the
// assignments cannot cover the volume.
func ConsumeSale(assignments []RetailerAssignment, volume int64) ([]RetailerAssignment, Quantity, error) {
	var unsold int64
	for _, a := range assignments {
		unsold += a.Unsold()
	}
	if volume > unsold {
		return nil, Quantity{}, NewMismatchError(CodeExceedsAvailable, "retailer_sale.volume", unsold, volume)
	}

	var released Quantity
	updated := make([]RetailerAssignment, 0, len(assignments))
	remaining := volume
	for _, a := range assignments {
		if remaining == 0 {
			break
		}
		take := a.Unsold()
		if take <= 0 {
			continue
		}
		if take > remaining {
			take = remaining
		}
		before := a.soldValue()
		a.SoldVolume += take
		remaining -= take
		released = released.Add(Quantity{Volume: take, Value: a.soldValue().Sub(before)})
		updated = append(updated, a)
	}
	return updated, released, nil
}

// soldValue prices SoldVolume pro rata of AllocatedValue. A fully sold
// assignment releases exactly its allocated value.
func (a RetailerAssignment) soldValue() decimal.Decimal {
	if a.AllocatedVolume == 0 {
		return decimal.Zero
	}
	return a.AllocatedValue.
		Mul(decimal.NewFromInt(a.SoldVolume)).
		Div(decimal.NewFromInt(a.AllocatedVolume)).
		Round(ValueScale)
}
