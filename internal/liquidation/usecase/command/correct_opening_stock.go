package command

import (
	"context"
	"strings"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// CorrectOpeningStockCommand replaces an entry's opening snapshot
type CorrectOpeningStockCommand struct {
	DealerID     string
	SKU          string
	OpeningStock domain.Quantity
	Reason       string
	RequestedBy  string
}

// CorrectOpeningStockHandler handles opening stock corrections
type CorrectOpeningStockHandler struct {
	ledger *ledger.Ledger
}

// NewCorrectOpeningStockHandler creates a new correct opening stock handler
func NewCorrectOpeningStockHandler(l *ledger.Ledger) *CorrectOpeningStockHandler {
	return &CorrectOpeningStockHandler{ledger: l}
}

// Handle executes the correct opening stock command
func (h *CorrectOpeningStockHandler) Handle(ctx context.Context, cmd CorrectOpeningStockCommand) (domain.StockEntry, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason != "" && cmd.RequestedBy != "" {
		reason = cmd.RequestedBy + ": " + reason
	}
	return h.ledger.CorrectOpeningStock(ctx, cmd.DealerID, cmd.SKU, cmd.OpeningStock, reason)
}
