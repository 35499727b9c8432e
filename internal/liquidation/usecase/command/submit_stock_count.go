package command

import (
	"context"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/ledger"
)

// SubmitStockCountCommand carries one visit's per-SKU counts. InRange and
// the document flags come from checks made before the ledger is called.
type SubmitStockCountCommand struct {
	DealerID   string
	Counts     map[string]int64
	InRange    bool
	Letterhead bool
	Signature  bool
}

// SubmitStockCountHandler handles stock count submission
type SubmitStockCountHandler struct {
	ledger *ledger.Ledger
}

// NewSubmitStockCountHandler creates a new submit stock count handler
func NewSubmitStockCountHandler(l *ledger.Ledger) *SubmitStockCountHandler {
	return &SubmitStockCountHandler{ledger: l}
}

// Handle executes the submit stock count command
func (h *SubmitStockCountHandler) Handle(ctx context.Context, cmd SubmitStockCountCommand) (ledger.StockCountResult, error) {
	return h.ledger.SubmitStockCount(ctx, ledger.StockCountSubmission{
		DealerID: cmd.DealerID,
		Counts:   cmd.Counts,
		InRange:  cmd.InRange,
		Documents: domain.Documents{
			Letterhead: cmd.Letterhead,
			Signature:  cmd.Signature,
		},
	})
}
