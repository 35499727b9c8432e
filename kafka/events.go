package kafka

import (
	"time"

	"github.com/shopspring/decimal"
)

// RetailerFarmerSaleEvent is published by the retailer-side system each time
// a retailer sells to a farmer.
type RetailerFarmerSaleEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	DistributorID string          `json:"distributor_id"`
	RetailerID    string          `json:"retailer_id"`
	SKU           string          `json:"sku"`
	Volume        int64           `json:"volume"`
	Value         decimal.Decimal `json:"value"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Event types
const (
	EventTypeRetailerFarmerSale = "retailer.farmer_sale"
)

// Kafka topics
const (
	TopicLiquidationEvents   = "liquidation-events"
	TopicRetailerFarmerSales = "retailer-farmer-sales"
)

const (
	headerEventType = "event_type"
	headerEventID   = "event_id"
)
