package domain

import (
	"errors"
	"time"
)

// ErrEventAlreadyApplied is returned when a ledger step carrying an event id
// has already been applied once.
var ErrEventAlreadyApplied = errors.New("event already applied")

// ProcessedEvent remembers an inbound event id whose ledger step was applied.
// It is written in the same transaction as the step itself.
type ProcessedEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	DealerID  string    `json:"dealer_id" gorm:"size:64;not null"`
	SKU       string    `json:"sku" gorm:"size:64;not null"`
	AppliedAt time.Time `json:"applied_at"`
}

// TableName specifies the table name
func (ProcessedEvent) TableName() string {
	return "liquidation_processed_events"
}
