package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// AllocateRetailersCommand names the retailers behind a retailer portion
type AllocateRetailersCommand struct {
	DealerID    string
	SKU         string
	Allocations map[string]int64
}

// AllocateRetailersHandler handles retailer allocation
type AllocateRetailersHandler struct {
	ledger *ledger.Ledger
}

// NewAllocateRetailersHandler creates a new allocate retailers handler
func NewAllocateRetailersHandler(l *ledger.Ledger) *AllocateRetailersHandler {
	return &AllocateRetailersHandler{ledger: l}
}

// Handle executes the allocate retailers command
func (h *AllocateRetailersHandler) Handle(ctx context.Context, cmd AllocateRetailersCommand) (ledger.AllocationResult, error) {
	if len(cmd.Allocations) == 0 {
		return ledger.AllocationResult{}, domain.NewValidationError(domain.CodeMissingField, "allocations", "at least one retailer allocation is required")
	}
	return h.ledger.AllocateToRetailers(ctx, cmd.DealerID, cmd.SKU, cmd.Allocations)
}
