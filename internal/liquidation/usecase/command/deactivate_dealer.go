package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// DeactivateDealerCommand represents the command to deactivate a dealer
type DeactivateDealerCommand struct {
	DealerID string
}

// DeactivateDealerHandler handles dealer deactivation
type DeactivateDealerHandler struct {
	ledger *ledger.Ledger
}

// NewDeactivateDealerHandler creates a new deactivate dealer handler
func NewDeactivateDealerHandler(l *ledger.Ledger) *DeactivateDealerHandler {
	return &DeactivateDealerHandler{ledger: l}
}

// Handle executes the deactivate dealer command
func (h *DeactivateDealerHandler) Handle(ctx context.Context, cmd DeactivateDealerCommand) (*domain.Dealer, error) {
	if cmd.DealerID == "" {
		return nil, domain.NewValidationError(domain.CodeMissingField, "dealer_id", "dealer id is required")
	}
	return h.ledger.DeactivateDealer(ctx, cmd.DealerID)
}
