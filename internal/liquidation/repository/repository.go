package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/liquidation-ledger/internal/liquidation/domain"
)

type GormLedgerRepository struct {
	db *gorm.DB
}

func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Dealer{}, &domain.StockEntry{}, &domain.RetailerAssignment{}, &domain.ProcessedEvent{})
}

func (r *GormLedgerRepository) CreateDealer(ctx context.Context, dealer *domain.Dealer) error {
	return r.db.WithContext(ctx).Create(dealer).Error
}

func (r *GormLedgerRepository) FindDealer(ctx context.Context, id string) (*domain.Dealer, error) {
	var dealer domain.Dealer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dealer).Error
	if err != nil {
		return nil, notFound(err, "dealer", id)
	}
	return &dealer, nil
}

func (r *GormLedgerRepository) UpdateDealer(ctx context.Context, dealer *domain.Dealer) error {
	return r.db.WithContext(ctx).Save(dealer).Error
}

func (r *GormLedgerRepository) ListDealers(ctx context.Context, filter domain.DealerFilter) ([]domain.Dealer, error) {
	q := r.db.WithContext(ctx).Model(&domain.Dealer{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.DistributorID != "" {
		q = q.Where("distributor_id = ?", filter.DistributorID)
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}

	var dealers []domain.Dealer
	err := q.Order("id").Find(&dealers).Error
	return dealers, err
}

func (r *GormLedgerRepository) CreateEntry(ctx context.Context, entry *domain.StockEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormLedgerRepository) FindEntry(ctx context.Context, dealerID, sku string) (*domain.StockEntry, error) {
	var entry domain.StockEntry
	err := r.db.WithContext(ctx).
		Where("dealer_id = ? AND sku = ?", dealerID, sku).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err, "stock_entry", domain.EntryKey{DealerID: dealerID, SKU: sku}.String())
	}
	return &entry, nil
}

func (r *GormLedgerRepository) ListEntries(ctx context.Context, dealerID string) ([]domain.StockEntry, error) {
	var entries []domain.StockEntry
	err := r.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		Order("sku").
		Find(&entries).Error
	return entries, err
}

func (r *GormLedgerRepository) ListAllEntries(ctx context.Context) ([]domain.StockEntry, error) {
	var entries []domain.StockEntry
	err := r.db.WithContext(ctx).Order("dealer_id").Order("sku").Find(&entries).Error
	return entries, err
}

// SaveEntry writes the entry and upserts the assignments in one transaction.
func (r *GormLedgerRepository) SaveEntry(ctx context.Context, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveEntry(tx, entry, assignments)
	})
}

func (r *GormLedgerRepository) SaveEntries(ctx context.Context, entries []*domain.StockEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range entries {
			if err := tx.Save(e).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveEntryForEvent inserts the event row first; a conflict on its id means a
// redelivery and rolls the whole step back.
func (r *GormLedgerRepository) SaveEntryForEvent(ctx context.Context, event domain.ProcessedEvent, entry *domain.StockEntry, assignments ...domain.RetailerAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrEventAlreadyApplied
		}
		return saveEntry(tx, entry, assignments)
	})
}

func (r *GormLedgerRepository) FindProcessedEvent(ctx context.Context, id string) (*domain.ProcessedEvent, error) {
	var event domain.ProcessedEvent
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, notFound(err, "processed_event", id)
	}
	return &event, nil
}

func saveEntry(tx *gorm.DB, entry *domain.StockEntry, assignments []domain.RetailerAssignment) error {
	if err := tx.Save(entry).Error; err != nil {
		return err
	}
	for i := range assignments {
		err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&assignments[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *GormLedgerRepository) ListAssignments(ctx context.Context, distributorID, sku string) ([]domain.RetailerAssignment, error) {
	q := r.db.WithContext(ctx).Where("distributor_id = ?", distributorID)
	if sku != "" {
		q = q.Where("sku = ?", sku)
	}

	var assignments []domain.RetailerAssignment
	err := q.Order("reconciled_at").Order("id").Find(&assignments).Error
	return assignments, err
}

// FindAssignments returns a retailer's assignments for a SKU, oldest first.
func (r *GormLedgerRepository) FindAssignments(ctx context.Context, distributorID, retailerID, sku string) ([]domain.RetailerAssignment, error) {
	var assignments []domain.RetailerAssignment
	err := r.db.WithContext(ctx).
		Where("distributor_id = ? AND retailer_id = ? AND sku = ?", distributorID, retailerID, sku).
		Order("reconciled_at").
		Order("id").
		Find(&assignments).Error
	return assignments, err
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFound(resource, id)
	}
	return err
}
