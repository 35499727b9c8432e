package query

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

const defaultSweepConcurrency = 8

// SweepQuery re-validates every stored entry
type SweepQuery struct {
	Concurrency int
}

// SweepReport summarises a sweep.
type SweepReport struct {
	Checked    int                         `json:"checked"`
	Violations []domain.InvariantViolation `json:"violations"`
}

// SweepHandler handles sweep query
type SweepHandler struct {
	repo domain.LedgerRepository
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(repo domain.LedgerRepository) *SweepHandler {
	return &SweepHandler{repo: repo}
}

// Handle executes the sweep query
func (h *SweepHandler) Handle(ctx context.Context, q SweepQuery) (*SweepReport, error) {
	entries, err := h.repo.ListAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	limit := q.Concurrency
	if limit <= 0 {
		limit = defaultSweepConcurrency
	}

	var (
		mu     sync.Mutex
		report = &SweepReport{Checked: len(entries), Violations: []domain.InvariantViolation{}}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := checkEntry(entry)
			if r.Violation != nil {
				mu.Lock()
				report.Violations = append(report.Violations, *r.Violation)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
