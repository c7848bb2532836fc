package kafka

import "time"

// ProductPurchasedEvent is emitted by the payment flow once an order is paid
type ProductPurchasedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	PaymentID string    `json:"payment_id"`
	ProductID string    `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductPurchased = "product.purchased"
)

// Kafka topics
const (
	TopicCatalogEvents    = "catalog-events"
	TopicProductPurchased = "product-purchased"
)

// Record headers
const (
	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)
