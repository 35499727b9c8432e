package query

import (
	"context"
	"errors"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

// ValidateEntryQuery represents the query to re-check an entry's derived fields
type ValidateEntryQuery struct {
	DealerID string
	SKU      string
}

// ValidationReport is the result of recomputing one entry.
type ValidationReport struct {
	DealerID  string                     `json:"dealer_id"`
	SKU       string                     `json:"sku"`
	Valid     bool                       `json:"valid"`
	Derived   domain.Derived             `json:"derived"`
	Violation *domain.InvariantViolation `json:"violation,omitempty"`
}

// ValidateEntryHandler handles validate entry query
type ValidateEntryHandler struct {
	repo domain.LedgerRepository
}

// NewValidateEntryHandler creates a new validate entry handler
func NewValidateEntryHandler(repo domain.LedgerRepository) *ValidateEntryHandler {
	return &ValidateEntryHandler{repo: repo}
}

// Handle executes the validate entry query. A violation is reported in the
// result, not returned as an error.
func (h *ValidateEntryHandler) Handle(ctx context.Context, q ValidateEntryQuery) (*ValidationReport, error) {
	entry, err := h.repo.FindEntry(ctx, q.DealerID, q.SKU)
	if err != nil {
		return nil, err
	}
	report := checkEntry(*entry)
	if report.Violation != nil {
		logger.Error(ctx).
			Str("dealer_id", entry.DealerID).
			Str("sku", entry.SKU).
			Str("invariant", report.Violation.Invariant).
			Msg("Stored entry fails recomputation")
	}
	return &report, nil
}

func checkEntry(entry domain.StockEntry) ValidationReport {
	report := ValidationReport{
		DealerID: entry.DealerID,
		SKU:      entry.SKU,
		Valid:    true,
		Derived:  entry.Derived(),
	}
	var iv *domain.InvariantViolation
	if err := domain.ValidateMetrics(entry); errors.As(err, &iv) {
		report.Valid = false
		report.Violation = iv
	}
	return report
}
