package model

import "time"

// Category classifies what kind of collectible an item is. Source routing
// uses it to decide which pricing providers apply.
type Category string

const (
	CategoryVideoGames   Category = "video_games"
	CategoryTradingCards Category = "trading_cards"
	CategorySneakers     Category = "sneakers"
	CategoryElectronics  Category = "electronics"
	CategoryCollectibles Category = "collectibles"
	CategoryOther        Category = "other"
)

// ParseCategory maps a user-supplied string to a Category, defaulting to
// CategoryOther for anything unrecognized.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryVideoGames, CategoryTradingCards, CategorySneakers,
		CategoryElectronics, CategoryCollectibles:
		return Category(s)
	default:
		return CategoryOther
	}
}

// Condition describes the physical state of an item. Providers that expose
// multiple price tiers map conditions onto those tiers.
type Condition string

const (
	ConditionNewSealed     Condition = "new_sealed"
	ConditionCompleteInBox Condition = "complete_in_box"
	ConditionLoose         Condition = "loose"
	ConditionGraded        Condition = "graded"
	ConditionOther         Condition = "other"
)

// ParseCondition maps a user-supplied string to a Condition, defaulting to
// ConditionLoose for anything unrecognized.
func ParseCondition(s string) Condition {
	switch Condition(s) {
	case ConditionNewSealed, ConditionCompleteInBox, ConditionLoose,
		ConditionGraded, ConditionOther:
		return Condition(s)
	default:
		return ConditionLoose
	}
}

// Item is the subject of a valuation: one physical collectible.
// Monetary values are integers in minor currency units (cents).
type Item struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      Category  `json:"category"`
	Condition     Condition `json:"condition"`
	CatalogID     string    `json:"catalog_id,omitempty"`     // provider-specific catalog identifier
	CatalogName   string    `json:"catalog_name,omitempty"`   // display name from the catalog entry
	CatalogSecond string    `json:"catalog_second,omitempty"` // secondary name (set / console / colorway)
	ValueCents    int64     `json:"value_cents"`
	ValueSource   string    `json:"value_source,omitempty"`
	Confidence    int       `json:"confidence"` // 0-100
	// OriginalCents holds the value the item had before its first
	// valuation or override. Set once, never updated afterwards.
	OriginalCents *int64    `json:"original_cents,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasCatalogLink reports whether the item is linked to a catalog entry.
func (i Item) HasCatalogLink() bool {
	return i.CatalogID != ""
}
