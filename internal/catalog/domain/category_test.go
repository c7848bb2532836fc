package domain

import (
	"errors"
	"testing"
)

func TestCategoryLifecycle(t *testing.T) {
	c, events, err := NewCategory(" Electronics ", "gadgets")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Electronics" || !c.IsActive || c.ActivatedAt == nil {
		t.Fatalf("unexpected category %+v", c)
	}
	if len(events) != 1 || events[0].EventName() != EventCategoryCreated {
		t.Fatalf("events = %v", events)
	}

	events = c.Deactivate()
	if c.IsActive || c.DeactivatedAt == nil || len(events) != 1 {
		t.Fatalf("deactivate: %+v %v", c, events)
	}
	if again := c.Deactivate(); again != nil {
		t.Fatal("second deactivate must be a no-op")
	}

	events = c.Activate()
	if !c.IsActive || len(events) != 1 || events[0].EventName() != EventCategoryActivated {
		t.Fatalf("activate: %+v %v", c, events)
	}
	if !c.ActivatedAt.After(c.CreatedAt) && !c.ActivatedAt.Equal(c.CreatedAt) {
		t.Fatal("activation timestamp earlier than creation")
	}
}

func TestCategoryRejectsBlankName(t *testing.T) {
	if _, _, err := NewCategory("  ", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	c, _, _ := NewCategory("Tools", "")
	if _, err := c.Update("", "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if c.Name != "Tools" {
		t.Fatal("name changed after rejected update")
	}
}

func TestCategoryEnsureDeletable(t *testing.T) {
	c, _, _ := NewCategory("Tools", "")

	_, err := c.EnsureDeletable(2)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	var refErr *ReferencedCategoryError
	if !errors.As(err, &refErr) || refErr.ProductCount != 2 {
		t.Fatalf("expected ReferencedCategoryError, got %v", err)
	}

	events, err := c.EnsureDeletable(0)
	if err != nil || len(events) != 1 || events[0].EventName() != EventCategoryDeleted {
		t.Fatalf("events=%v err=%v", events, err)
	}
}

func TestSameName(t *testing.T) {
	if !SameName("Electronics", " electronics") {
		t.Error("expected case-insensitive match")
	}
	if SameName("Electronics", "Electronic") {
		t.Error("unexpected match")
	}
	// long s folds to s under Unicode folding but LOWER() leaves it alone
	if SameName("ſale", "sale") {
		t.Error("names must compare by lowercase form, not case folding")
	}
	if NameKey("  ÉLECTRONIQUE ") != "électronique" {
		t.Errorf("NameKey = %q", NameKey("  ÉLECTRONIQUE "))
	}
}
