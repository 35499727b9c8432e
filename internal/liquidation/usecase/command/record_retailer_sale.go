package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// RecordRetailerSaleCommand reports a retailer's sale to a farmer. EventID,
// when set, lets a redelivered report be recognised and ignored.
type RecordRetailerSaleCommand struct {
	EventID       string
	DistributorID string
	RetailerID    string
	SKU           string
	Quantity      domain.Quantity
}

// RecordRetailerSaleHandler handles retailer farmer sales. It is shared by
// the HTTP endpoint and the Kafka consumer.
type RecordRetailerSaleHandler struct {
	ledger *ledger.Ledger
}

// NewRecordRetailerSaleHandler creates a new record retailer sale handler
func NewRecordRetailerSaleHandler(l *ledger.Ledger) *RecordRetailerSaleHandler {
	return &RecordRetailerSaleHandler{ledger: l}
}

// Handle executes the record retailer sale command
func (h *RecordRetailerSaleHandler) Handle(ctx context.Context, cmd RecordRetailerSaleCommand) (domain.StockEntry, error) {
	return h.ledger.RecordFarmerSaleFromRetailer(ctx, ledger.RetailerSale{
		EventID:       cmd.EventID,
		DistributorID: cmd.DistributorID,
		RetailerID:    cmd.RetailerID,
		SKU:           cmd.SKU,
		Quantity:      cmd.Quantity,
	})
}
