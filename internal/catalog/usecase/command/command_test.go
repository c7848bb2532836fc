package command

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tair/product-catalog/internal/catalog/cache"
	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/internal/catalog/repository"
	"github.com/tair/product-catalog/internal/catalog/usecase/query"
	gateway "github.com/tair/product-catalog/pkg/cache"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) named(name string) []domain.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.DomainEvent
	for _, e := range p.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// writeCounter counts product writes reaching the repository
type writeCounter struct {
	domain.ProductRepository
	adds    atomic.Int32
	updates atomic.Int32
	reads   atomic.Int32
}

func (w *writeCounter) Add(ctx context.Context, p *domain.Product) error {
	w.adds.Add(1)
	return w.ProductRepository.Add(ctx, p)
}

func (w *writeCounter) Update(ctx context.Context, p *domain.Product, expected int) error {
	w.updates.Add(1)
	return w.ProductRepository.Update(ctx, p, expected)
}

func (w *writeCounter) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	w.reads.Add(1)
	return w.ProductRepository.GetByID(ctx, id)
}

type env struct {
	products    *writeCounter
	categories  domain.CategoryRepository
	store       *cache.Store
	invalidator *cache.Invalidator
	publisher   *recordingPublisher
	redis       *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	gw := gateway.NewRedisCache(client)

	mem := repository.NewMemoryStore()
	return &env{
		products:    &writeCounter{ProductRepository: mem.Products()},
		categories:  mem.Categories(),
		store:       cache.NewStore(gw, cache.DefaultTTL()),
		invalidator: cache.NewInvalidator(gw),
		publisher:   &recordingPublisher{},
		redis:       mr,
	}
}

func (e *env) createCategory(t *testing.T, name string) string {
	t.Helper()
	c, err := NewCreateCategoryHandler(e.categories, e.invalidator, e.publisher).
		Handle(context.Background(), CreateCategoryCommand{Name: name})
	if err != nil {
		t.Fatal(err)
	}
	return c.ID
}

func (e *env) createProduct(t *testing.T, categoryID string, stock int) string {
	t.Helper()
	p, err := NewCreateProductHandler(e.products, e.categories, e.invalidator, e.publisher).
		Handle(context.Background(), CreateProductCommand{Name: "Widget", Price: decimal.NewFromInt(10), StockQuantity: stock, CategoryID: categoryID})
	if err != nil {
		t.Fatal(err)
	}
	return p.ID
}

func TestWidgetScenario(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")

	p, err := NewCreateProductHandler(e.products, e.categories, e.invalidator, e.publisher).Handle(context.Background(), CreateProductCommand{
		Name:          "Widget",
		Description:   "desc",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: 5,
		CategoryID:    categoryID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsLowStock || p.CategoryName != "Electronics" {
		t.Fatalf("unexpected product %+v", p)
	}

	created := e.publisher.named(domain.EventProductCreated)
	if len(created) != 1 || created[0].(domain.ProductCreated).StockQuantity != 5 {
		t.Fatalf("created events = %v", created)
	}
	if len(e.publisher.named(domain.EventLowStockDetected)) != 0 {
		t.Fatal("creation must not emit LowStockDetected")
	}
}

func TestProperty_CreatePreservesInputs(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	h := NewCreateProductHandler(e.products, e.categories, e.invalidator, e.publisher)

	properties := gopter.NewProperties(nil)
	properties.Property("valid inputs round-trip into the DTO", prop.ForAll(
		func(name string, cents int64, stock int) bool {
			price := decimal.New(cents, -2)
			p, err := h.Handle(context.Background(), CreateProductCommand{Name: name, Price: price, StockQuantity: stock, CategoryID: categoryID})
			if err != nil {
				return false
			}
			return p.Name == name && p.Price.Equal(price) && p.StockQuantity == stock && p.CategoryID == categoryID && p.Version == 1
		},
		gen.Identifier().SuchThat(func(s string) bool { return len(s) <= domain.MaxNameLength }),
		gen.Int64Range(1, 1_000_000),
		gen.IntRange(0, 10_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateRejectsInvalidInputWithoutWriting(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	h := NewCreateProductHandler(e.products, e.categories, e.invalidator, e.publisher)

	cases := map[string]CreateProductCommand{
		"zero price":     {Name: "A", Price: decimal.Zero, CategoryID: categoryID},
		"negative price": {Name: "A", Price: decimal.NewFromInt(-1), CategoryID: categoryID},
		"negative stock": {Name: "A", Price: decimal.NewFromInt(1), StockQuantity: -1, CategoryID: categoryID},
		"blank name":     {Name: "   ", Price: decimal.NewFromInt(1), CategoryID: categoryID},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := h.Handle(context.Background(), cmd); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if n := e.products.adds.Load(); n != 0 {
		t.Fatalf("%d writes reached the repository", n)
	}

	_, err := h.Handle(context.Background(), CreateProductCommand{Name: "A", Price: decimal.NewFromInt(1), CategoryID: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown category, got %v", err)
	}
}

func TestUpdateRejectsInvalidInputWithoutWriting(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	h := NewUpdateProductHandler(e.products, e.categories, e.invalidator, e.publisher)

	_, err := h.Handle(context.Background(), UpdateProductCommand{ID: id, Name: "B", Price: decimal.Zero, CategoryID: categoryID})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if n := e.products.updates.Load(); n != 0 {
		t.Fatalf("%d writes reached the repository", n)
	}
}

func TestLowStockEventOnDownwardCrossingOnly(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	h := NewUpdateStockHandler(e.products, e.categories, e.invalidator, e.publisher)
	ctx := context.Background()

	for _, q := range []int{8, 5, 3, 15, 12} {
		if _, err := h.Handle(ctx, UpdateStockCommand{ProductID: id, Quantity: q}); err != nil {
			t.Fatal(err)
		}
	}

	if n := len(e.publisher.named(domain.EventLowStockDetected)); n != 1 {
		t.Fatalf("LowStockDetected fired %d times, want 1", n)
	}
	if n := len(e.publisher.named(domain.EventProductStockUpdated)); n != 5 {
		t.Fatalf("ProductStockUpdated fired %d times, want 5", n)
	}

	if _, err := h.Handle(ctx, UpdateStockCommand{ProductID: id, Quantity: -1}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 12)
	h := NewAdjustStockHandler(e.products, e.categories, e.invalidator, e.publisher)
	ctx := context.Background()

	p, err := h.Handle(ctx, AdjustStockCommand{ProductID: id, Delta: -4})
	if err != nil || p.StockQuantity != 8 || !p.IsLowStock {
		t.Fatalf("p=%+v err=%v", p, err)
	}
	if _, err := h.Handle(ctx, AdjustStockCommand{ProductID: id, Delta: -9}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := h.Handle(ctx, AdjustStockCommand{ProductID: id, Delta: 0}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero delta, got %v", err)
	}
	if _, err := h.Handle(ctx, AdjustStockCommand{ProductID: "missing", Delta: 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustStockRejectsOverflow(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 5)
	ctx := context.Background()

	e.products.updates.Store(0)
	_, err := NewAdjustStockHandler(e.products, e.categories, e.invalidator, e.publisher).
		Handle(ctx, AdjustStockCommand{ProductID: id, Delta: math.MaxInt})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if e.products.updates.Load() != 0 {
		t.Fatal("rejected adjustment reached the repository")
	}
	stored, _ := e.products.GetByID(ctx, id)
	if stored.StockQuantity != 5 {
		t.Fatalf("stock = %d, want 5", stored.StockQuantity)
	}
}

func TestCacheRoundTripWithInvalidation(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	get := query.NewGetProductHandler(e.products, e.categories, e.store)
	ctx := context.Background()

	e.products.reads.Store(0)
	for i := 0; i < 2; i++ {
		if _, err := get.Handle(ctx, query.GetProductQuery{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if n := e.products.reads.Load(); n > 1 {
		t.Fatalf("repository read %d times, want at most 1", n)
	}

	update := NewUpdateProductHandler(e.products, e.categories, e.invalidator, e.publisher)
	if _, err := update.Handle(ctx, UpdateProductCommand{ID: id, Name: "Renamed", Price: decimal.NewFromInt(11), CategoryID: categoryID}); err != nil {
		t.Fatal(err)
	}

	e.products.reads.Store(0)
	got, err := get.Handle(ctx, query.GetProductQuery{ID: id})
	if err != nil {
		t.Fatal(err)
	}
	if e.products.reads.Load() != 1 || got.Name != "Renamed" || got.Version != 3 {
		t.Fatalf("stale read after update: reads=%d product=%+v", e.products.reads.Load(), got)
	}
}

// cancelOnUpdate cancels the request context once the write has been stored
type cancelOnUpdate struct {
	domain.ProductRepository
	cancel context.CancelFunc
}

func (c *cancelOnUpdate) Update(ctx context.Context, p *domain.Product, expected int) error {
	err := c.ProductRepository.Update(ctx, p, expected)
	c.cancel()
	return err
}

func TestInvalidationSurvivesCancellationAfterWrite(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	get := query.NewGetProductHandler(e.products, e.categories, e.store)

	if _, err := get.Handle(context.Background(), query.GetProductQuery{ID: id}); err != nil {
		t.Fatal(err)
	}
	if !e.redis.Exists(cache.ProductKey(id)) {
		t.Fatal("expected product to be cached")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &cancelOnUpdate{ProductRepository: e.products, cancel: cancel}
	_, err := NewUpdateProductHandler(repo, e.categories, e.invalidator, e.publisher).
		Handle(ctx, UpdateProductCommand{ID: id, Name: "Renamed", Price: decimal.NewFromInt(11), CategoryID: categoryID})
	if err != nil {
		t.Fatal(err)
	}

	got, err := get.Handle(context.Background(), query.GetProductQuery{ID: id})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("cached read = %q after committed rename", got.Name)
	}
	if len(e.publisher.named(domain.EventProductUpdated)) != 1 {
		t.Fatal("expected ProductUpdated to be published")
	}
}

// staleReader hands out a copy captured before a concurrent write
type staleReader struct {
	domain.ProductRepository
	stale *domain.Product
}

func (s *staleReader) GetByID(context.Context, string) (*domain.Product, error) {
	p := *s.stale
	return &p, nil
}

func TestUpdateDetectsConcurrentModification(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	ctx := context.Background()

	snapshot, _ := e.products.GetByID(ctx, id)
	if _, err := NewUpdateStockHandler(e.products, e.categories, e.invalidator, e.publisher).Handle(ctx, UpdateStockCommand{ProductID: id, Quantity: 30}); err != nil {
		t.Fatal(err)
	}

	stale := &staleReader{ProductRepository: e.products, stale: snapshot}
	_, err := NewUpdateProductHandler(stale, e.categories, e.invalidator, e.publisher).
		Handle(ctx, UpdateProductCommand{ID: id, Name: "Late", Price: decimal.NewFromInt(1), CategoryID: categoryID})
	if !errors.Is(err, domain.ErrConcurrencyConflict) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	h := NewDeleteProductHandler(e.products, e.invalidator, e.publisher)

	deleted, err := h.Handle(context.Background(), DeleteProductCommand{ID: id})
	if err != nil || !deleted {
		t.Fatalf("deleted=%v err=%v", deleted, err)
	}
	again, err := h.Handle(context.Background(), DeleteProductCommand{ID: id})
	if err != nil || again {
		t.Fatalf("second delete: deleted=%v err=%v", again, err)
	}
	if len(e.publisher.named(domain.EventProductDeleted)) != 1 {
		t.Fatal("expected one ProductDeleted event")
	}
}

func TestBulkUpdateStockReportsPartialApplication(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	a := e.createProduct(t, categoryID, 20)
	b := e.createProduct(t, categoryID, 20)

	result, err := NewBulkUpdateStockHandler(e.products, e.invalidator, e.publisher).Handle(context.Background(), BulkUpdateStockCommand{
		Quantities: map[string]int{a: 5, b: -3, "missing": 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Updated) != 1 || result.Updated[0] != a {
		t.Fatalf("updated = %v", result.Updated)
	}
	if _, ok := result.Failed[b]; !ok {
		t.Fatalf("negative quantity not reported: %v", result.Failed)
	}
	if _, ok := result.Failed["missing"]; !ok {
		t.Fatalf("missing product not reported: %v", result.Failed)
	}
	if !result.Partial() {
		t.Fatal("expected partial result")
	}

	got, _ := e.products.GetByID(context.Background(), a)
	if got.StockQuantity != 5 {
		t.Fatalf("stock = %d", got.StockQuantity)
	}
	if len(e.publisher.named(domain.EventLowStockDetected)) != 1 {
		t.Fatal("expected LowStockDetected for the applied entry")
	}
}

// racingReader lets another writer change stock right after the product has been read
type racingReader struct {
	domain.ProductRepository
	race func(ctx context.Context, id string)
}

func (r *racingReader) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := r.ProductRepository.GetByID(ctx, id)
	if err == nil && r.race != nil {
		race := r.race
		r.race = nil
		race(ctx, id)
	}
	return p, err
}

func TestBulkUpdateStockDetectsConcurrentWrite(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	id := e.createProduct(t, categoryID, 20)
	ctx := context.Background()

	repo := &racingReader{ProductRepository: e.products, race: func(ctx context.Context, id string) {
		if _, err := NewUpdateStockHandler(e.products, e.categories, e.invalidator, e.publisher).
			Handle(ctx, UpdateStockCommand{ProductID: id, Quantity: 3}); err != nil {
			t.Errorf("concurrent write: %v", err)
		}
	}}

	result, err := NewBulkUpdateStockHandler(repo, e.invalidator, e.publisher).
		Handle(ctx, BulkUpdateStockCommand{Quantities: map[string]int{id: 40}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Updated) != 0 || result.Failed[id] == "" {
		t.Fatalf("result = %+v", result)
	}

	stored, _ := e.products.GetByID(ctx, id)
	if stored.StockQuantity != 3 {
		t.Fatalf("concurrent write overwritten: stock = %d", stored.StockQuantity)
	}
}

func TestCategoryNameUniqueness(t *testing.T) {
	e := newEnv(t)
	first := e.createCategory(t, "Electronics")
	second := e.createCategory(t, "Books")
	ctx := context.Background()

	_, err := NewCreateCategoryHandler(e.categories, e.invalidator, e.publisher).Handle(ctx, CreateCategoryCommand{Name: "ELECTRONICS"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	update := NewUpdateCategoryHandler(e.categories, e.invalidator, e.publisher)
	if _, err := update.Handle(ctx, UpdateCategoryCommand{ID: second, Name: "electronics"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on rename, got %v", err)
	}
	if _, err := update.Handle(ctx, UpdateCategoryCommand{ID: first, Name: "electronics", Description: "lowercase"}); err != nil {
		t.Fatalf("renaming to own name must succeed: %v", err)
	}
}

func TestDeleteCategory(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	productID := e.createProduct(t, categoryID, 20)
	h := NewDeleteCategoryHandler(e.categories, e.invalidator, e.publisher)
	ctx := context.Background()

	if err := h.Handle(ctx, DeleteCategoryCommand{ID: categoryID}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := NewDeleteProductHandler(e.products, e.invalidator, e.publisher).Handle(ctx, DeleteProductCommand{ID: productID}); err != nil {
		t.Fatal(err)
	}
	if err := h.Handle(ctx, DeleteCategoryCommand{ID: categoryID}); err != nil {
		t.Fatalf("delete after products removed: %v", err)
	}
	if ok, _ := e.categories.Exists(ctx, categoryID); ok {
		t.Fatal("category still exists")
	}
}

func TestCategoryActivationIsIdempotent(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	h := NewSetCategoryActiveHandler(e.categories, e.invalidator, e.publisher)
	ctx := context.Background()

	if _, err := h.Handle(ctx, SetCategoryActiveCommand{ID: categoryID, Active: true}); err != nil {
		t.Fatal(err)
	}
	if len(e.publisher.named(domain.EventCategoryActivated)) != 0 {
		t.Fatal("activating an active category must not emit")
	}

	c, err := h.Handle(ctx, SetCategoryActiveCommand{ID: categoryID, Active: false})
	if err != nil || c.IsActive || c.DeactivatedAt == nil {
		t.Fatalf("c=%+v err=%v", c, err)
	}
	if len(e.publisher.named(domain.EventCategoryDeactivated)) != 1 {
		t.Fatal("expected one CategoryDeactivated event")
	}
}

func TestWriteInvalidatesLists(t *testing.T) {
	e := newEnv(t)
	categoryID := e.createCategory(t, "Electronics")
	ctx := context.Background()

	all := query.NewGetAllProductsHandler(e.products, e.categories, e.store)
	if _, err := all.Handle(ctx); err != nil {
		t.Fatal(err)
	}
	if !e.redis.Exists(cache.AllProductsKey) {
		t.Fatal("list not cached")
	}

	e.createProduct(t, categoryID, 3)
	if e.redis.Exists(cache.AllProductsKey) {
		t.Fatal("list not invalidated by create")
	}

	got, err := all.Handle(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("got %v err %v", got, err)
	}
}
