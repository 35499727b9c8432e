package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the state of an entry's stock-count cycle.
//
//	Idle --count reveals a reduction--> PendingClassification
//	PendingClassification --split sums match (and retailers allocated)--> Committed
//	Committed --next count--> Idle or PendingClassification
type ReconciliationStatus string

const (
	StatusIdle                  ReconciliationStatus = "idle"
	StatusPendingClassification ReconciliationStatus = "pending_classification"
	StatusCommitted             ReconciliationStatus = "committed"
)

// EntryKey identifies a StockEntry.
type EntryKey struct {
	DealerID string `json:"dealer_id"`
	SKU      string `json:"sku"`
}

func (k EntryKey) String() string {
	return k.DealerID + "/" + k.SKU
}

// Reconciliation is the in-flight classification of a stock-count shortfall.
// While pending it holds no authority over the entry's quantities.
type Reconciliation struct {
	Status        ReconciliationStatus `json:"status" gorm:"type:varchar(32);not null;default:'idle'"`
	CountedVolume int64                `json:"counted_volume"`
	Difference    int64                `json:"difference"`
	Classified    bool                 `json:"classified"`
	ToFarmer      int64                `json:"to_farmer"`
	ToRetailer    int64                `json:"to_retailer"`
	Documents     Documents            `json:"documents" gorm:"embedded;embeddedPrefix:docs_"`
	StartedAt     *time.Time           `json:"started_at,omitempty"`
	CommittedAt   *time.Time           `json:"committed_at,omitempty"`
}

// AwaitingAllocation reports whether the split is known and only the
// retailer allocation is missing.
func (r Reconciliation) AwaitingAllocation() bool {
	return r.Status == StatusPendingClassification && r.Classified && r.ToRetailer > 0
}

// StockCountOutcome describes what a single stock count did to an entry.
type StockCountOutcome struct {
	DealerID         string               `json:"dealer_id"`
	SKU              string               `json:"sku"`
	PreviousVolume   int64                `json:"previous_volume"`
	CountedVolume    int64                `json:"counted_volume"`
	Difference       int64                `json:"difference"`
	Status           ReconciliationStatus `json:"status"`
	StockIncrease    bool                 `json:"stock_increase"`
	Increase         int64                `json:"increase,omitempty"`
	AbandonedPending bool                 `json:"abandoned_pending,omitempty"`
}

// RecordStockCount compares a physical count with the last known stock.
// A count at or above it is applied at once; a count below it opens a
// reconciliation and leaves every quantity untouched. A count arriving while
// another reconciliation is pending abandons the earlier one.
func (e StockEntry) RecordStockCount(counted int64, docs Documents, now time.Time) (StockEntry, StockCountOutcome, error) {
	if counted < 0 {
		return e, StockCountOutcome{}, NewMismatchError(CodeNegativeQuantity, "counted_volume", 0, counted)
	}

	outcome := StockCountOutcome{
		DealerID:         e.DealerID,
		SKU:              e.SKU,
		PreviousVolume:   e.CurrentStock.Volume,
		CountedVolume:    counted,
		Difference:       e.CurrentStock.Volume - counted,
		AbandonedPending: e.Reconciliation.Status == StatusPendingClassification,
	}

	if outcome.Difference <= 0 {
		e.CurrentStock = Quantity{Volume: counted, Value: e.valueOf(counted)}
		e.Documents = docs
		e.Reconciliation = Reconciliation{Status: StatusIdle}
		e.LastCountedAt = &now
		if outcome.Difference < 0 {
			outcome.StockIncrease = true
			outcome.Increase = -outcome.Difference
		}
		outcome.Status = StatusIdle
		return e.Recompute(), outcome, nil
	}

	e.Reconciliation = Reconciliation{
		Status:        StatusPendingClassification,
		CountedVolume: counted,
		Difference:    outcome.Difference,
		Documents:     docs,
		StartedAt:     &now,
	}
	outcome.Status = StatusPendingClassification
	return e, outcome, nil
}

// Classify splits the pending shortfall into direct farmer sales and stock
// handed to retailers. The split must cover the whole difference. With no
// retailer portion the reconciliation commits immediately.
func (e StockEntry) Classify(toFarmer, toRetailer int64, now time.Time) (StockEntry, bool, error) {
	rec := e.Reconciliation
	if rec.Status != StatusPendingClassification {
		return e, false, NewValidationError(CodeNoPendingReconciliation, "reconciliation", "no stock count awaits classification")
	}
	if toFarmer < 0 {
		return e, false, NewMismatchError(CodeNegativeQuantity, "to_farmer", 0, toFarmer)
	}
	if toRetailer < 0 {
		return e, false, NewMismatchError(CodeNegativeQuantity, "to_retailer", 0, toRetailer)
	}
	if sum := toFarmer + toRetailer; sum != rec.Difference {
		return e, false, NewMismatchError(CodeClassificationMismatch, "classification", rec.Difference, sum)
	}

	e.Reconciliation.Classified = true
	e.Reconciliation.ToFarmer = toFarmer
	e.Reconciliation.ToRetailer = toRetailer

	if toRetailer == 0 {
		committed, _ := e.commit(nil, now)
		return committed, true, nil
	}
	return e, false, nil
}

// AllocateToRetailers names the retailers that received the retailer portion
// of a classified reconciliation. The allocation must sum exactly to that
// portion; when it does the reconciliation commits.
func (e StockEntry) AllocateToRetailers(allocations map[string]int64, now time.Time) (StockEntry, []RetailerAssignment, error) {
	rec := e.Reconciliation
	if rec.Status != StatusPendingClassification {
		return e, nil, NewValidationError(CodeNoPendingReconciliation, "reconciliation", "no stock count awaits classification")
	}
	if !rec.AwaitingAllocation() {
		return e, nil, NewValidationError(CodeNotAwaitingAllocation, "reconciliation", "classify the shortfall before allocating to retailers")
	}

	var sum int64
	for retailerID, volume := range allocations {
		if retailerID == "" {
			return e, nil, NewValidationError(CodeMissingField, "allocations", "retailer id is required")
		}
		if volume < 0 {
			return e, nil, NewMismatchError(CodeNegativeQuantity, "allocations."+retailerID, 0, volume)
		}
		sum += volume
	}
	if sum != rec.ToRetailer {
		return e, nil, NewMismatchError(CodeAllocationMismatch, "allocations", rec.ToRetailer, sum)
	}

	updated, assignments := e.commit(allocations, now)
	return updated, assignments, nil
}

// commit applies a fully classified reconciliation. Every volume is priced at
// the valuation unit in force before the count. The retailer portion is held
// by the retailers until they resell it, so it does not count as liquidation
// yet.
func (e StockEntry) commit(allocations map[string]int64, now time.Time) (StockEntry, []RetailerAssignment) {
	rec := e.Reconciliation

	farmer := Quantity{Volume: rec.ToFarmer, Value: e.valueOf(rec.ToFarmer)}
	retailer := Quantity{Volume: rec.ToRetailer, Value: e.valueOf(rec.ToRetailer)}
	assignments := buildAssignments(e, allocations, retailer.Value, now)

	e.LiquidatedToFarmer = e.LiquidatedToFarmer.Add(farmer)
	e.HeldByRetailers = e.HeldByRetailers.Add(retailer)
	e.CurrentStock = Quantity{Volume: rec.CountedVolume, Value: e.valueOf(rec.CountedVolume)}
	e.Documents = rec.Documents
	e.LastCountedAt = &now

	e.Reconciliation.Status = StatusCommitted
	e.Reconciliation.CommittedAt = &now

	return e.Recompute(), assignments
}

func buildAssignments(e StockEntry, allocations map[string]int64, total decimal.Decimal, now time.Time) []RetailerAssignment {
	retailerIDs := make([]string, 0, len(allocations))
	for id, volume := range allocations {
		if volume > 0 {
			retailerIDs = append(retailerIDs, id)
		}
	}
	if len(retailerIDs) == 0 {
		return nil
	}
	sort.Strings(retailerIDs)

	assignments := make([]RetailerAssignment, 0, len(retailerIDs))
	allocated := decimal.Zero
	largest := 0
	for i, id := range retailerIDs {
		volume := allocations[id]
		value := e.valueOf(volume)
		allocated = allocated.Add(value)
		if volume > allocations[retailerIDs[largest]] {
			largest = i
		}
		assignments = append(assignments, RetailerAssignment{
			DistributorID:   e.DealerID,
			RetailerID:      id,
			SKU:             e.SKU,
			AllocatedVolume: volume,
			AllocatedValue:  value,
			ReconciledAt:    now,
		})
	}
	// Per-retailer rounding residue goes to the largest allocation so the
	// assignments sum to the retailer portion exactly.
	if residue := total.Sub(allocated); !residue.IsZero() {
		assignments[largest].AllocatedValue = assignments[largest].AllocatedValue.Add(residue)
	}
	return assignments
}
