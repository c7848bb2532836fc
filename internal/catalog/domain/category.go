package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups products. Products is a non-owning back-reference used for counts only.
type Category struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string     `json:"name" gorm:"size:100;not null;uniqueIndex:idx_categories_name_lower,expression:lower(name)"`
	Description   string     `json:"description"`
	IsActive      bool       `json:"is_active" gorm:"not null;default:true"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Products      []Product  `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name
func (Category) TableName() string {
	return "categories"
}

// NewCategory builds an active category. Name uniqueness is checked by the caller.
func NewCategory(name, description string) (*Category, []DomainEvent, error) {
	name = strings.TrimSpace(name)
	if err := validateName("category", name); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	c := &Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		ActivatedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return c, []DomainEvent{CategoryCreated{CategoryID: c.ID, Name: c.Name, At: now}}, nil
}

// Update replaces name and description
func (c *Category) Update(name, description string) ([]DomainEvent, error) {
	name = strings.TrimSpace(name)
	if err := validateName("category", name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.UpdatedAt = now

	return []DomainEvent{CategoryUpdated{
		CategoryID:  c.ID,
		Name:        c.Name,
		Description: c.Description,
		At:          now,
	}}, nil
}

// Activate marks the category active. Activating an active category is a no-op.
func (c *Category) Activate() []DomainEvent {
	if c.IsActive {
		return nil
	}

	now := time.Now().UTC()
	c.IsActive = true
	c.ActivatedAt = &now
	c.UpdatedAt = now
	return []DomainEvent{CategoryActivated{CategoryID: c.ID, At: now}}
}

// Deactivate marks the category inactive. Deactivating an inactive category is a no-op.
func (c *Category) Deactivate() []DomainEvent {
	if !c.IsActive {
		return nil
	}

	now := time.Now().UTC()
	c.IsActive = false
	c.DeactivatedAt = &now
	c.UpdatedAt = now
	return []DomainEvent{CategoryDeactivated{CategoryID: c.ID, At: now}}
}

// EnsureDeletable fails with ErrConflict while products still reference the category
func (c *Category) EnsureDeletable(productCount int64) ([]DomainEvent, error) {
	if productCount > 0 {
		return nil, &ReferencedCategoryError{CategoryID: c.ID, ProductCount: productCount}
	}
	return []DomainEvent{CategoryDeleted{CategoryID: c.ID, At: time.Now().UTC()}}, nil
}

// NameKey is the form category names are compared in: trimmed and lowercased rune by rune,
// matching SQL LOWER() rather than full Unicode case folding.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameName compares category names case-insensitively
func SameName(a, b string) bool {
	return NameKey(a) == NameKey(b)
}

// ReferencedCategoryError reports a delete blocked by associated products
type ReferencedCategoryError struct {
	CategoryID   string
	ProductCount int64
}

func (e *ReferencedCategoryError) Error() string {
	return "category " + e.CategoryID + " still has associated products"
}

func (e *ReferencedCategoryError) Unwrap() error {
	return ErrConflict
}
