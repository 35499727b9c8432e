package kafka

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/command"
)

// RetailerSaleHandler feeds retailer sale events into the same command the
// HTTP endpoint uses. The event id travels with the command, so a redelivered
// event is recognised by the ledger and not applied twice.
func RetailerSaleHandler(h *command.RecordRetailerSaleHandler) EventHandler {
	return func(ctx context.Context, event RetailerFarmerSaleEvent) error {
		_, err := h.Handle(ctx, command.RecordRetailerSaleCommand{
			EventID:       event.EventID,
			DistributorID: event.DistributorID,
			RetailerID:    event.RetailerID,
			SKU:           event.SKU,
			Quantity:      domain.Quantity{Volume: event.Volume, Value: event.Value},
		})
		return err
	}
}
