package model

import (
	"fmt"
	"time"
)

// SourceKind identifies a pricing provider.
type SourceKind string

const (
	SourcePriceCharting SourceKind = "pricecharting"
	SourceEbay          SourceKind = "ebay"
	SourceSoldScan      SourceKind = "soldscan"
	SourceJustTCG       SourceKind = "justtcg"
	SourceSneakFind     SourceKind = "sneakfind"
)

// Trend classifies recent price direction.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Volatility classifies price dispersion across recent sales.
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// SourceObservation is one provider's answer for one valuation attempt.
// Weight is a raw tier before normalization; tiers only have meaning
// relative to each other within a single consolidation pass.
type SourceObservation struct {
	Source     SourceKind `json:"source"`
	PriceCents int64      `json:"price_cents"`
	Weight     float64    `json:"weight"`      // 0-1, pre-normalization
	Confidence int        `json:"confidence"`  // 0-100
	SampleSize int        `json:"sample_size"` // sales/listings backing the price
	Trend      Trend      `json:"trend,omitempty"`
	Volatility Volatility `json:"volatility,omitempty"`
	ObservedAt time.Time  `json:"observed_at"`
}

// PriceRange is the spread across contributing observations. Present only
// when min and max differ.
type PriceRange struct {
	MinCents int64  `json:"min_cents"`
	MaxCents int64  `json:"max_cents"`
	Display  string `json:"display"`
}

// FormatRange renders a cents range as a human-readable dollar string.
func FormatRange(minCents, maxCents int64) string {
	return fmt.Sprintf("$%.2f – $%.2f", float64(minCents)/100, float64(maxCents)/100)
}

// ConsolidatedValuation is the immutable output of one consolidation pass.
// Sources are listed in adapter invocation order with weights normalized to
// sum to 1.
type ConsolidatedValuation struct {
	ValueCents int64               `json:"value_cents"`
	Confidence int                 `json:"confidence"` // 0-100
	Sources    []SourceObservation `json:"sources"`
	Trend      Trend               `json:"trend"`
	Volatility Volatility          `json:"volatility"`
	Range      *PriceRange         `json:"range,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// PriceCacheEntry is one persisted valuation row, keyed by item + purpose
// tag. Rows are insert-only; the current answer for a key is the most
// recent non-expired row by FetchedAt.
type PriceCacheEntry struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	Purpose    string    `json:"purpose"` // "consolidated" or a provider name
	ValueCents int64     `json:"value_cents"`
	Confidence int       `json:"confidence"`
	SampleSize int       `json:"sample_size"`
	Payload    []byte    `json:"payload,omitempty"` // raw snapshot for audit
	FetchedAt  time.Time `json:"fetched_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// PurposeConsolidated tags cache rows holding a merged multi-source result.
const PurposeConsolidated = "consolidated"

// SourceTagCached marks engine responses served from the cache without a
// fresh fan-out.
const SourceTagCached = "cached"

// SourceTagAPI tags the single-source catalog fallback path.
const SourceTagAPI = "api"
