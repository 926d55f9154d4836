package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
)

// ErrNotFound reports a missing item. Callers use errors.Is to distinguish
// "no such item" from storage failures.
var ErrNotFound = eris.New("item not found")

// ItemFilter specifies criteria for listing items.
type ItemFilter struct {
	Category model.Category `json:"category,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// Store defines the persistence interface for items and the price cache.
//
// Price cache rows are insert-only: concurrent valuations for the same item
// never mutate rows in place, they just add newer ones. "The current
// answer" for an (item, purpose) key is the most recent non-expired row.
type Store interface {
	// Items
	CreateItem(ctx context.Context, item model.Item) (*model.Item, error)
	GetItem(ctx context.Context, itemID string) (*model.Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error)
	// UpdateItemValue sets the item's current value, source tag, and
	// confidence. The pre-update value is retained as the item's original
	// value the first time this is called, never after.
	UpdateItemValue(ctx context.Context, itemID string, valueCents int64, source string, confidence int) error
	// LinkCatalog attaches a catalog entry to an item.
	LinkCatalog(ctx context.Context, itemID, catalogID, displayName, secondaryName string) error

	// Price cache / valuation history
	GetCachedPrice(ctx context.Context, itemID, purpose string) (*model.PriceCacheEntry, error)
	PutCachedPrice(ctx context.Context, itemID, purpose string, valueCents int64, confidence, sampleSize int, payload []byte, ttl time.Duration) error
	InvalidateItemCache(ctx context.Context, itemID string) (int, error)
	ListPriceHistory(ctx context.Context, itemID string, limit int) ([]model.PriceCacheEntry, error)
	DeleteExpiredPrices(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
