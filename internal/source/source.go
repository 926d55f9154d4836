// Package source wraps the external pricing providers behind a uniform
// fetch/applicability/availability contract.
package source

import (
	"context"

	"github.com/collectorvault/appraise/internal/model"
)

// Source is one pricing provider. Implementations are stateless aside from
// their configuration.
//
// Fetch performs one logical provider request and translates the native
// response into a SourceObservation. It returns (nil, nil) when the
// provider has no answer (empty result set, no strong match); transport
// and payload errors come back as errors and the caller treats them the
// same as no answer.
type Source interface {
	// Kind returns the provider identifier.
	Kind() model.SourceKind
	// Available reports whether the provider is configured with a
	// well-formed credential. Unconfigured providers are silently skipped.
	Available() bool
	// Applicable reports whether the provider can price this item, based
	// on category and title vocabulary.
	Applicable(item model.Item) bool
	// Fetch queries the provider for a price observation.
	Fetch(ctx context.Context, item model.Item) (*model.SourceObservation, error)
}

// searchQuery builds the text query an item is searched under: the catalog
// display name when linked, otherwise the item title, plus the secondary
// name (set, console, colorway) when present.
func searchQuery(item model.Item) string {
	q := item.Title
	if item.CatalogName != "" {
		q = item.CatalogName
	}
	if item.CatalogSecond != "" {
		q += " " + item.CatalogSecond
	}
	return q
}
