// Package cache holds the catalog's cache-aside policy: key layout, TTLs, typed access on
// top of the gateway, and the single invalidation path used after successful writes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gateway "github.com/tair/product-catalog/pkg/cache"
	"github.com/tair/product-catalog/pkg/logger"
)

const (
	AllProductsKey   = "products:all"
	AllCategoriesKey = "categories:all"
	DashboardKey     = "stats:dashboard"
	CategoryStatsKey = "stats:categories"
	productPattern   = "product:*"
	lowStockPattern  = "products:lowstock:*"
	defaultItemTTL   = 10 * time.Minute
	defaultListTTL   = 15 * time.Minute
	evictionTimeout  = 5 * time.Second
)

func ProductKey(id string) string {
	return "product:" + id
}

func CategoryKey(id string) string {
	return "category:" + id
}

func LowStockKey(threshold int) string {
	return fmt.Sprintf("products:lowstock:%d", threshold)
}

// TTL holds expiry for single entities and whole lists
type TTL struct {
	Item time.Duration
	List time.Duration
}

// DefaultTTL returns 10 minutes for items and 15 for lists
func DefaultTTL() TTL {
	return TTL{Item: defaultItemTTL, List: defaultListTTL}
}

func (t TTL) withDefaults() TTL {
	if t.Item <= 0 {
		t.Item = defaultItemTTL
	}
	if t.List <= 0 {
		t.List = defaultListTTL
	}
	return t
}

// Store reads and writes JSON values through the gateway
type Store struct {
	gw  gateway.Gateway
	ttl TTL
}

func NewStore(gw gateway.Gateway, ttl TTL) *Store {
	return &Store{gw: gw, ttl: ttl.withDefaults()}
}

// Get decodes the cached value into dst. Undecodable entries count as a miss and are evicted.
func (s *Store) Get(ctx context.Context, key string, dst interface{}) bool {
	raw, ok := s.gw.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Discarding undecodable cache entry")
		s.gw.Remove(ctx, key)
		return false
	}
	return true
}

// SetItem caches a single entity with the item TTL
func (s *Store) SetItem(ctx context.Context, key string, value interface{}) {
	s.set(ctx, key, value, s.ttl.Item)
}

// SetList caches a list or aggregate with the list TTL
func (s *Store) SetList(ctx context.Context, key string, value interface{}) {
	s.set(ctx, key, value, s.ttl.List)
}

func (s *Store) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to encode cache value")
		return
	}
	s.gw.Set(ctx, key, raw, ttl)
}

// Invalidator is the one place that knows which keys a mutation makes stale. It runs after
// the store write has committed, so evictions outlive the caller's cancellation.
type Invalidator struct {
	gw gateway.Gateway
}

func NewInvalidator(gw gateway.Gateway) *Invalidator {
	return &Invalidator{gw: gw}
}

// ProductChanged evicts the product, every product list, the statistics and the cached
// entries of the categories whose product counts moved.
func (i *Invalidator) ProductChanged(ctx context.Context, productID string, categoryIDs ...string) {
	ctx, cancel := detach(ctx)
	defer cancel()

	keys := []string{ProductKey(productID), AllProductsKey, AllCategoriesKey, DashboardKey, CategoryStatsKey}
	for _, id := range categoryIDs {
		if id != "" {
			keys = append(keys, CategoryKey(id))
		}
	}

	i.gw.Remove(ctx, keys...)
	i.gw.RemovePattern(ctx, lowStockPattern)

	logger.Debug(ctx).Str("product_id", productID).Strs("cache_keys", keys).Msg("Product cache invalidated")
}

// CategoryChanged evicts the category, the statistics and every cached product view, since
// product views embed the category name.
func (i *Invalidator) CategoryChanged(ctx context.Context, categoryID string) {
	ctx, cancel := detach(ctx)
	defer cancel()

	keys := []string{CategoryKey(categoryID), AllCategoriesKey, AllProductsKey, DashboardKey, CategoryStatsKey}
	i.gw.Remove(ctx, keys...)
	i.gw.RemovePattern(ctx, lowStockPattern)
	i.gw.RemovePattern(ctx, productPattern)

	logger.Debug(ctx).Str("category_id", categoryID).Strs("cache_keys", keys).Msg("Category cache invalidated")
}

// detach keeps ctx values such as the trace span but drops its cancellation and deadline
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), evictionTimeout)
}
