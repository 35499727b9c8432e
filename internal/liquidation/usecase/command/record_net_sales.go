package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// RecordNetSalesCommand adds net sales into a dealer
type RecordNetSalesCommand struct {
	DealerID string
	SKU      string
	Quantity domain.Quantity
}

// RecordNetSalesHandler handles net sales
type RecordNetSalesHandler struct {
	ledger *ledger.Ledger
}

// NewRecordNetSalesHandler creates a new record net sales handler
func NewRecordNetSalesHandler(l *ledger.Ledger) *RecordNetSalesHandler {
	return &RecordNetSalesHandler{ledger: l}
}

// Handle executes the record net sales command
func (h *RecordNetSalesHandler) Handle(ctx context.Context, cmd RecordNetSalesCommand) (domain.StockEntry, error) {
	return h.ledger.RecordNetSales(ctx, cmd.DealerID, cmd.SKU, cmd.Quantity)
}
