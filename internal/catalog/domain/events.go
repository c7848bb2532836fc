package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event names
const (
	EventProductCreated      = "ProductCreated"
	EventProductUpdated      = "ProductUpdated"
	EventProductStockUpdated = "ProductStockUpdated"
	EventLowStockDetected    = "LowStockDetected"
	EventProductDeleted      = "ProductDeleted"
	EventCategoryCreated     = "CategoryCreated"
	EventCategoryUpdated     = "CategoryUpdated"
	EventCategoryActivated   = "CategoryActivated"
	EventCategoryDeactivated = "CategoryDeactivated"
	EventCategoryDeleted     = "CategoryDeleted"
)

// DomainEvent is an immutable fact produced by an aggregate mutation
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventPublisher forwards domain events to notification channels. Publishing is
// fire-and-forget: implementations must not fail the caller.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent)
}

type ProductCreated struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryID    string          `json:"category_id"`
	At            time.Time       `json:"occurred_at"`
}

func (e ProductCreated) EventName() string     { return EventProductCreated }
func (e ProductCreated) AggregateID() string   { return e.ProductID }
func (e ProductCreated) OccurredAt() time.Time { return e.At }

type ProductUpdated struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	Version     int             `json:"version"`
	At          time.Time       `json:"occurred_at"`
}

func (e ProductUpdated) EventName() string     { return EventProductUpdated }
func (e ProductUpdated) AggregateID() string   { return e.ProductID }
func (e ProductUpdated) OccurredAt() time.Time { return e.At }

type ProductStockUpdated struct {
	ProductID     string    `json:"product_id"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	At            time.Time `json:"occurred_at"`
}

func (e ProductStockUpdated) EventName() string     { return EventProductStockUpdated }
func (e ProductStockUpdated) AggregateID() string   { return e.ProductID }
func (e ProductStockUpdated) OccurredAt() time.Time { return e.At }

// LowStockDetected fires when stock crosses from at-or-above the threshold to below it
type LowStockDetected struct {
	ProductID     string    `json:"product_id"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stock_quantity"`
	Threshold     int       `json:"threshold"`
	At            time.Time `json:"occurred_at"`
}

func (e LowStockDetected) EventName() string     { return EventLowStockDetected }
func (e LowStockDetected) AggregateID() string   { return e.ProductID }
func (e LowStockDetected) OccurredAt() time.Time { return e.At }

type ProductDeleted struct {
	ProductID  string    `json:"product_id"`
	CategoryID string    `json:"category_id"`
	At         time.Time `json:"occurred_at"`
}

func (e ProductDeleted) EventName() string     { return EventProductDeleted }
func (e ProductDeleted) AggregateID() string   { return e.ProductID }
func (e ProductDeleted) OccurredAt() time.Time { return e.At }

type CategoryCreated struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	At         time.Time `json:"occurred_at"`
}

func (e CategoryCreated) EventName() string     { return EventCategoryCreated }
func (e CategoryCreated) AggregateID() string   { return e.CategoryID }
func (e CategoryCreated) OccurredAt() time.Time { return e.At }

type CategoryUpdated struct {
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	At          time.Time `json:"occurred_at"`
}

func (e CategoryUpdated) EventName() string     { return EventCategoryUpdated }
func (e CategoryUpdated) AggregateID() string   { return e.CategoryID }
func (e CategoryUpdated) OccurredAt() time.Time { return e.At }

type CategoryActivated struct {
	CategoryID string    `json:"category_id"`
	At         time.Time `json:"occurred_at"`
}

func (e CategoryActivated) EventName() string     { return EventCategoryActivated }
func (e CategoryActivated) AggregateID() string   { return e.CategoryID }
func (e CategoryActivated) OccurredAt() time.Time { return e.At }

type CategoryDeactivated struct {
	CategoryID string    `json:"category_id"`
	At         time.Time `json:"occurred_at"`
}

func (e CategoryDeactivated) EventName() string     { return EventCategoryDeactivated }
func (e CategoryDeactivated) AggregateID() string   { return e.CategoryID }
func (e CategoryDeactivated) OccurredAt() time.Time { return e.At }

type CategoryDeleted struct {
	CategoryID string    `json:"category_id"`
	At         time.Time `json:"occurred_at"`
}

func (e CategoryDeleted) EventName() string     { return EventCategoryDeleted }
func (e CategoryDeleted) AggregateID() string   { return e.CategoryID }
func (e CategoryDeleted) OccurredAt() time.Time { return e.At }
