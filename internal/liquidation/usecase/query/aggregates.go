package query

import (
	"context"
	"fmt"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

func loadDistributorAggregate(ctx context.Context, repo domain.LedgerRepository, distributor domain.Dealer) (domain.DistributorAggregate, error) {
	entries, err := repo.ListEntries(ctx, distributor.ID)
	if err != nil {
		return domain.DistributorAggregate{}, fmt.Errorf("failed to list entries: %w", err)
	}

	retailers, err := repo.ListDealers(ctx, domain.DealerFilter{Type: domain.DealerRetailer, DistributorID: distributor.ID})
	if err != nil {
		return domain.DistributorAggregate{}, fmt.Errorf("failed to list retailers: %w", err)
	}

	var retailerEntries []domain.StockEntry
	for _, r := range retailers {
		re, err := repo.ListEntries(ctx, r.ID)
		if err != nil {
			return domain.DistributorAggregate{}, fmt.Errorf("failed to list retailer entries: %w", err)
		}
		retailerEntries = append(retailerEntries, re...)
	}

	return domain.BuildDistributorAggregate(distributor, entries, retailers, retailerEntries), nil
}

func loadAllAggregates(ctx context.Context, repo domain.LedgerRepository) ([]domain.DistributorAggregate, error) {
	distributors, err := repo.ListDealers(ctx, domain.DealerFilter{Type: domain.DealerDistributor})
	if err != nil {
		return nil, fmt.Errorf("failed to list distributors: %w", err)
	}

	aggregates := make([]domain.DistributorAggregate, 0, len(distributors))
	for _, d := range distributors {
		agg, err := loadDistributorAggregate(ctx, repo, d)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, nil
}
