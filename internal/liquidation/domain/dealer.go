package domain

import (
	"time"
)

// DealerType distinguishes distributors from the retailers they supply.
type DealerType string

const (
	DealerDistributor DealerType = "distributor"
	DealerRetailer    DealerType = "retailer"
)

// Dealer is a distributor or retailer. Dealers are never deleted, only deactivated.
type Dealer struct {
	ID            string     `json:"id" gorm:"primaryKey;size:64"`
	Name          string     `json:"name" gorm:"not null"`
	Type          DealerType `json:"type" gorm:"type:varchar(16);not null;index"`
	DistributorID string     `json:"distributor_id,omitempty" gorm:"size:64;index"`
	Territory     string     `json:"territory,omitempty"`
	Active        bool       `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Dealer) TableName() string {
	return "liquidation_dealers"
}

func (d *Dealer) IsDistributor() bool {
	return d.Type == DealerDistributor
}

// Validate checks the dealer's own fields. Whether the parent distributor
// exists is the ledger's concern.
func (d *Dealer) Validate() error {
	if d.ID == "" {
		return NewValidationError(CodeMissingField, "id", "dealer id is required")
	}
	if d.Name == "" {
		return NewValidationError(CodeMissingField, "name", "dealer name is required")
	}
	switch d.Type {
	case DealerDistributor:
		if d.DistributorID != "" {
			return NewValidationError(CodeInvalidDealer, "distributor_id", "a distributor cannot have a parent distributor")
		}
	case DealerRetailer:
		if d.DistributorID == "" {
			return NewValidationError(CodeMissingField, "distributor_id", "a retailer must name its supplying distributor")
		}
	default:
		return NewValidationError(CodeInvalidDealer, "type", "type must be distributor or retailer")
	}
	return nil
}

// DealerFilter narrows ListDealers. Zero values match everything.
type DealerFilter struct {
	Type          DealerType
	DistributorID string
	ActiveOnly    bool
}
