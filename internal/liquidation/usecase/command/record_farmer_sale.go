package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// RecordFarmerSaleCommand books a dealer's own sale to a farmer
type RecordFarmerSaleCommand struct {
	DealerID string
	SKU      string
	Quantity domain.Quantity
}

// RecordFarmerSaleHandler handles direct farmer sales
type RecordFarmerSaleHandler struct {
	ledger *ledger.Ledger
}

// NewRecordFarmerSaleHandler creates a new record farmer sale handler
func NewRecordFarmerSaleHandler(l *ledger.Ledger) *RecordFarmerSaleHandler {
	return &RecordFarmerSaleHandler{ledger: l}
}

// Handle executes the record farmer sale command
func (h *RecordFarmerSaleHandler) Handle(ctx context.Context, cmd RecordFarmerSaleCommand) (domain.StockEntry, error) {
	return h.ledger.RecordDirectFarmerSale(ctx, cmd.DealerID, cmd.SKU, cmd.Quantity)
}
