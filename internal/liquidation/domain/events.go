package domain

import "time"

// Ledger event types
const (
	EventReconciliationCommitted = "liquidation.reconciliation_committed"
	EventRetailerSaleRecorded    = "liquidation.retailer_sale_recorded"
	EventStockIncreaseDetected   = "liquidation.stock_increase_detected"
)

// LedgerEvent is emitted after a ledger step has been persisted. Consumers
// must treat it as a notification; the ledger is the source of truth.
type LedgerEvent struct {
	EventID     string               `json:"event_id"`
	EventType   string               `json:"event_type"`
	DealerID    string               `json:"dealer_id"`
	SKU         string               `json:"sku"`
	RetailerID  string               `json:"retailer_id,omitempty"`
	Quantity    Quantity             `json:"quantity"`
	Entry       *StockEntry          `json:"entry,omitempty"`
	Assignments []RetailerAssignment `json:"assignments,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}
