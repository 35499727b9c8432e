package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// ClassifyCommand splits a pending shortfall
type ClassifyCommand struct {
	DealerID       string
	SKU            string
	ToFarmerDirect int64
	ToRetailer     int64
}

// ClassifyHandler handles shortfall classification
type ClassifyHandler struct {
	ledger *ledger.Ledger
}

// NewClassifyHandler creates a new classify handler
func NewClassifyHandler(l *ledger.Ledger) *ClassifyHandler {
	return &ClassifyHandler{ledger: l}
}

// Handle executes the classify command
func (h *ClassifyHandler) Handle(ctx context.Context, cmd ClassifyCommand) (ledger.ClassifyResult, error) {
	return h.ledger.Classify(ctx, cmd.DealerID, cmd.SKU, cmd.ToFarmerDirect, cmd.ToRetailer)
}
