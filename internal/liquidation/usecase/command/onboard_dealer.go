package command

import (
	"context"
	"strings"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// OnboardDealerCommand represents the command to register a dealer
type OnboardDealerCommand struct {
	ID            string
	Name          string
	Type          domain.DealerType
	DistributorID string
	Territory     string
}

// OnboardDealerHandler handles dealer onboarding
type OnboardDealerHandler struct {
	ledger *ledger.Ledger
}

// NewOnboardDealerHandler creates a new onboard dealer handler
func NewOnboardDealerHandler(l *ledger.Ledger) *OnboardDealerHandler {
	return &OnboardDealerHandler{ledger: l}
}

// Handle executes the onboard dealer command
func (h *OnboardDealerHandler) Handle(ctx context.Context, cmd OnboardDealerCommand) (*domain.Dealer, error) {
	dealer := domain.Dealer{
		ID:            strings.TrimSpace(cmd.ID),
		Name:          strings.TrimSpace(cmd.Name),
		Type:          domain.DealerType(strings.ToLower(string(cmd.Type))),
		DistributorID: strings.TrimSpace(cmd.DistributorID),
		Territory:     cmd.Territory,
	}
	return h.ledger.OnboardDealer(ctx, dealer)
}
