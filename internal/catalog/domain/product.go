package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// LowStockThreshold is the quantity below which a product is flagged as low stock
	LowStockThreshold = 10
	// MaxNameLength bounds product and category names
	MaxNameLength = 100
	// MaxStockQuantity bounds the quantity on hand so arithmetic on it cannot overflow
	MaxStockQuantity = 1_000_000_000
)

// Product is the product aggregate root
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string          `json:"name" gorm:"size:100;not null;index"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;default:0"`
	CategoryID    string          `json:"category_id" gorm:"type:varchar(36);not null;index"`
	Version       int             `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// IsLowStock reports whether stock is below LowStockThreshold
func (p *Product) IsLowStock() bool {
	return p.StockQuantity < LowStockThreshold
}

// StockValue is price multiplied by quantity on hand
func (p *Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

// NewProduct validates every invariant and builds a new product
func NewProduct(name, description string, price decimal.Decimal, stock int, categoryID string) (*Product, []DomainEvent, error) {
	name = strings.TrimSpace(name)
	if err := validateName("product", name); err != nil {
		return nil, nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(categoryID) == "" {
		return nil, nil, validationError("category is required")
	}

	now := time.Now().UTC()
	p := &Product{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   strings.TrimSpace(description),
		Price:         price,
		StockQuantity: stock,
		CategoryID:    categoryID,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return p, []DomainEvent{ProductCreated{
		ProductID:     p.ID,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		At:            now,
	}}, nil
}

// UpdateBasicInfo replaces name, description and price
func (p *Product) UpdateBasicInfo(name, description string, price decimal.Decimal) ([]DomainEvent, error) {
	name = strings.TrimSpace(name)
	if err := validateName("product", name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Price = price
	now := p.touch()

	return []DomainEvent{p.updatedEvent(now)}, nil
}

// UpdateCategory moves the product to another category. The caller checks the category exists.
func (p *Product) UpdateCategory(categoryID string) ([]DomainEvent, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, validationError("category is required")
	}

	changed := p.CategoryID != categoryID
	p.CategoryID = categoryID
	now := p.touch()

	if !changed {
		return nil, nil
	}
	return []DomainEvent{p.updatedEvent(now)}, nil
}

// UpdateStock sets the quantity on hand
func (p *Product) UpdateStock(quantity int) ([]DomainEvent, error) {
	if err := validateStock(quantity); err != nil {
		return nil, err
	}
	return p.setStock(quantity), nil
}

// IncreaseStock adds units to the quantity on hand
func (p *Product) IncreaseStock(units int) ([]DomainEvent, error) {
	if units <= 0 {
		return nil, validationError("stock increase must be positive")
	}
	if units > MaxStockQuantity-p.StockQuantity {
		return nil, validationError("stock increase of %d exceeds the maximum of %d units", units, MaxStockQuantity)
	}
	return p.setStock(p.StockQuantity + units), nil
}

// DecreaseStock removes units from the quantity on hand
func (p *Product) DecreaseStock(units int) ([]DomainEvent, error) {
	if units <= 0 {
		return nil, validationError("stock decrease must be positive")
	}
	if units > p.StockQuantity {
		return nil, validationError("insufficient stock: have %d, requested %d", p.StockQuantity, units)
	}
	return p.setStock(p.StockQuantity - units), nil
}

// MarkDeleted returns the event describing the product's removal
func (p *Product) MarkDeleted() []DomainEvent {
	return []DomainEvent{ProductDeleted{
		ProductID:  p.ID,
		CategoryID: p.CategoryID,
		At:         time.Now().UTC(),
	}}
}

func (p *Product) setStock(quantity int) []DomainEvent {
	previous := p.StockQuantity
	if previous == quantity {
		return nil
	}

	p.StockQuantity = quantity
	now := p.touch()

	events := []DomainEvent{ProductStockUpdated{
		ProductID:     p.ID,
		PreviousStock: previous,
		NewStock:      quantity,
		At:            now,
	}}

	if previous >= LowStockThreshold && quantity < LowStockThreshold {
		events = append(events, LowStockDetected{
			ProductID:     p.ID,
			Name:          p.Name,
			StockQuantity: quantity,
			Threshold:     LowStockThreshold,
			At:            now,
		})
	}
	return events
}

func validateStock(quantity int) error {
	if quantity < 0 {
		return validationError("stock quantity cannot be negative")
	}
	if quantity > MaxStockQuantity {
		return validationError("stock quantity cannot exceed %d", MaxStockQuantity)
	}
	return nil
}

func (p *Product) touch() time.Time {
	now := time.Now().UTC()
	p.Version++
	p.UpdatedAt = now
	return now
}

func (p *Product) updatedEvent(at time.Time) ProductUpdated {
	return ProductUpdated{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		Version:     p.Version,
		At:          at,
	}
}

func validateName(kind, name string) error {
	if name == "" {
		return validationError("%s name is required", kind)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return validationError("%s name must be at most %d characters", kind, MaxNameLength)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return validationError("price must be greater than zero")
	}
	return nil
}
