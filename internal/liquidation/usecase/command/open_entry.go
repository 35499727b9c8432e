package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// OpenEntryCommand represents the command to open a dealer×SKU ledger row
type OpenEntryCommand struct {
	DealerID     string
	SKU          string
	OpeningStock domain.Quantity
	YTDNetSales  domain.Quantity
	CurrentStock *domain.Quantity
}

// OpenEntryHandler handles entry creation
type OpenEntryHandler struct {
	ledger *ledger.Ledger
}

// NewOpenEntryHandler creates a new open entry handler
func NewOpenEntryHandler(l *ledger.Ledger) *OpenEntryHandler {
	return &OpenEntryHandler{ledger: l}
}

// Handle executes the open entry command
func (h *OpenEntryHandler) Handle(ctx context.Context, cmd OpenEntryCommand) (*domain.StockEntry, error) {
	return h.ledger.OpenEntry(ctx, ledger.OpenEntryInput{
		DealerID:     cmd.DealerID,
		SKU:          cmd.SKU,
		OpeningStock: cmd.OpeningStock,
		YTDNetSales:  cmd.YTDNetSales,
		CurrentStock: cmd.CurrentStock,
	})
}
