package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tair/liquidation-ledger/internal/liquidation"
	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
	"github.com/tair/liquidation-ledger/internal/liquidation/usecase/command"
	"github.com/tair/liquidation-ledger/pkg/logger"
)

// seedFile is the on-disk seed format. Dealers are onboarded in file order,
// so distributors must precede their retailers.
type seedFile struct {
	Dealers []struct {
		ID            string            `json:"id"`
		Name          string            `json:"name"`
		Type          domain.DealerType `json:"type"`
		DistributorID string            `json:"distributor_id"`
		Territory     string            `json:"territory"`
	} `json:"dealers"`
	Entries []struct {
		DealerID     string           `json:"dealer_id"`
		SKU          string           `json:"sku"`
		OpeningStock domain.Quantity  `json:"opening_stock"`
		YTDNetSales  domain.Quantity  `json:"ytd_net_sales"`
		CurrentStock *domain.Quantity `json:"current_stock"`
	} `json:"entries"`
}

type seedSummary struct {
	DealersCreated int
	DealersSkipped int
	EntriesCreated int
	EntriesSkipped int
}

// seed applies the file through the ledger commands. Existing dealers and
// entries are skipped, so a seed can be re-run.
func seed(ctx context.Context, svc *liquidation.Service, r io.Reader) (seedSummary, error) {
	var (
		file    seedFile
		summary seedSummary
	)
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return summary, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for _, d := range file.Dealers {
		_, err := svc.Commands.OnboardDealer.Handle(ctx, command.OnboardDealerCommand{
			ID:            d.ID,
			Name:          d.Name,
			Type:          d.Type,
			DistributorID: d.DistributorID,
			Territory:     d.Territory,
		})
		switch {
		case err == nil:
			summary.DealersCreated++
		case hasCode(err, domain.CodeDealerExists):
			summary.DealersSkipped++
			logger.Debug(ctx).Str("dealer_id", d.ID).Msg("Dealer already exists, skipping")
		default:
			return summary, fmt.Errorf("dealer %s: %w", d.ID, err)
		}
	}

	for _, e := range file.Entries {
		_, err := svc.Commands.OpenEntry.Handle(ctx, command.OpenEntryCommand{
			DealerID:     e.DealerID,
			SKU:          e.SKU,
			OpeningStock: e.OpeningStock,
			YTDNetSales:  e.YTDNetSales,
			CurrentStock: e.CurrentStock,
		})
		switch {
		case err == nil:
			summary.EntriesCreated++
		case hasCode(err, domain.CodeEntryExists):
			summary.EntriesSkipped++
			logger.Debug(ctx).Str("dealer_id", e.DealerID).Str("sku", e.SKU).Msg("Entry already exists, skipping")
		default:
			return summary, fmt.Errorf("entry %s/%s: %w", e.DealerID, e.SKU, err)
		}
	}

	return summary, nil
}

func hasCode(err error, code domain.ErrorCode) bool {
	var v *domain.ValidationError
	return errors.As(err, &v) && v.Code == code
}
