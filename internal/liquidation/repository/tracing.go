package repository

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

var tracer = otel.Tracer("liquidation-repository")

// TracingLedgerRepository wraps any LedgerRepository with spans
type TracingLedgerRepository struct {
	next domain.LedgerRepository
}

// NewTracingLedgerRepository creates a new repository with tracing
func NewTracingLedgerRepository(next domain.LedgerRepository) *TracingLedgerRepository {
	return &TracingLedgerRepository{next: next}
}

func (r *TracingLedgerRepository) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "repository."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if domain.IsNotFound(err) {
			span.SetAttributes(attribute.Bool("db.not_found", true))
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

func (r *TracingLedgerRepository) CreateDealer(ctx context.Context, dealer *domain.Dealer) (err error) {
	ctx, span := r.start(ctx, "CreateDealer",
		attribute.String("dealer.id", dealer.ID),
		attribute.String("dealer.type", string(dealer.Type)),
	)
	defer func() { finish(span, err) }()
	return r.next.CreateDealer(ctx, dealer)
}

func (r *TracingLedgerRepository) FindDealer(ctx context.Context, id string) (d *domain.Dealer, err error) {
	ctx, span := r.start(ctx, "FindDealer", attribute.String("dealer.id", id))
	defer func() { finish(span, err) }()
	return r.next.FindDealer(ctx, id)
}

func (r *TracingLedgerRepository) UpdateDealer(ctx context.Context, dealer *domain.Dealer) (err error) {
	ctx, span := r.start(ctx, "UpdateDealer",
		attribute.String("dealer.id", dealer.ID),
		attribute.Bool("dealer.active", dealer.Active),
	)
	defer func() { finish(span, err) }()
	return r.next.UpdateDealer(ctx, dealer)
}

func (r *TracingLedgerRepository) ListDealers(ctx context.Context, filter domain.DealerFilter) (dealers []domain.Dealer, err error) {
	ctx, span := r.start(ctx, "ListDealers",
		attribute.String("filter.type", string(filter.Type)),
		attribute.String("filter.distributor_id", filter.DistributorID),
		attribute.Bool("filter.active_only", filter.ActiveOnly),
	)
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(dealers)))
		finish(span, err)
	}()
	return r.next.ListDealers(ctx, filter)
}

func (r *TracingLedgerRepository) CreateEntry(ctx context.Context, entry *domain.StockEntry) (err error) {
	ctx, span := r.start(ctx, "CreateEntry", entryAttributes(entry.DealerID, entry.SKU)...)
	defer func() { finish(span, err) }()
	return r.next.CreateEntry(ctx, entry)
}

func (r *TracingLedgerRepository) FindEntry(ctx context.Context, dealerID, sku string) (e *domain.StockEntry, err error) {
	ctx, span := r.start(ctx, "FindEntry", entryAttributes(dealerID, sku)...)
	defer func() { finish(span, err) }()
	return r.next.FindEntry(ctx, dealerID, sku)
}

func (r *TracingLedgerRepository) ListEntries(ctx context.Context, dealerID string) (entries []domain.StockEntry, err error) {
	ctx, span := r.start(ctx, "ListEntries", attribute.String("dealer.id", dealerID))
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(entries)))
		finish(span, err)
	}()
	return r.next.ListEntries(ctx, dealerID)
}

func (r *TracingLedgerRepository) ListAllEntries(ctx context.Context) (entries []domain.StockEntry, err error) {
	ctx, span := r.start(ctx, "ListAllEntries")
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(entries)))
		finish(span, err)
	}()
	return r.next.ListAllEntries(ctx)
}

func (r *TracingLedgerRepository) SaveEntry(ctx context.Context, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) (err error) {
	attrs := append(entryAttributes(entry.DealerID, entry.SKU),
		attribute.String("entry.reconciliation_status", string(entry.Reconciliation.Status)),
		attribute.Int64("entry.balance_volume", entry.BalanceStock.Volume),
		attribute.Int64("entry.liquidation_percentage", entry.LiquidationPercentage),
		attribute.Int("assignments.count", len(assignments)),
	)
	ctx, span := r.start(ctx, "SaveEntry", attrs...)
	defer func() { finish(span, err) }()
	return r.next.SaveEntry(ctx, entry, assignments...)
}

func (r *TracingLedgerRepository) SaveEntries(ctx context.Context, entries []*domain.StockEntry) (err error) {
	attrs := []attribute.KeyValue{attribute.Int("entries.count", len(entries))}
	if len(entries) > 0 {
		attrs = append(attrs, attribute.String("dealer.id", entries[0].DealerID))
	}
	ctx, span := r.start(ctx, "SaveEntries", attrs...)
	defer func() { finish(span, err) }()
	return r.next.SaveEntries(ctx, entries)
}

func (r *TracingLedgerRepository) SaveEntryForEvent(ctx context.Context, event domain.ProcessedEvent, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) (err error) {
	attrs := append(entryAttributes(entry.DealerID, entry.SKU),
		attribute.String("event.id", event.ID),
		attribute.Int("assignments.count", len(assignments)),
	)
	ctx, span := r.start(ctx, "SaveEntryForEvent", attrs...)
	defer func() {
		if errors.Is(err, domain.ErrEventAlreadyApplied) {
			span.SetAttributes(attribute.Bool("event.duplicate", true))
			span.End()
			return
		}
		finish(span, err)
	}()
	return r.next.SaveEntryForEvent(ctx, event, entry, assignments...)
}

func (r *TracingLedgerRepository) FindProcessedEvent(ctx context.Context, id string) (e *domain.ProcessedEvent, err error) {
	ctx, span := r.start(ctx, "FindProcessedEvent", attribute.String("event.id", id))
	defer func() { finish(span, err) }()
	return r.next.FindProcessedEvent(ctx, id)
}

func (r *TracingLedgerRepository) ListAssignments(ctx context.Context, distributorID, sku string) (out []domain.RetailerAssignment, err error) {
	ctx, span := r.start(ctx, "ListAssignments", entryAttributes(distributorID, sku)...)
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(out)))
		finish(span, err)
	}()
	return r.next.ListAssignments(ctx, distributorID, sku)
}

func (r *TracingLedgerRepository) FindAssignments(ctx context.Context, distributorID, retailerID, sku string) (out []domain.RetailerAssignment, err error) {
	attrs := append(entryAttributes(distributorID, sku), attribute.String("retailer.id", retailerID))
	ctx, span := r.start(ctx, "FindAssignments", attrs...)
	defer func() {
		span.SetAttributes(attribute.Int("result.count", len(out)))
		finish(span, err)
	}()
	return r.next.FindAssignments(ctx, distributorID, retailerID, sku)
}

func entryAttributes(dealerID, sku string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("dealer.id", dealerID),
		attribute.String("entry.sku", sku),
	}
}
