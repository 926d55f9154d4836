package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/sneakfind"
)

// sneakFindKeyMinLen is the minimum length of a plausible API key.
const sneakFindKeyMinLen = 24

// SneakFindSource prices sneakers. Like the card source it requires
// exactly one strong name match to contribute.
type SneakFindSource struct {
	client  sneakfind.Client
	key     string
	routing *Routing
}

// NewSneakFind creates the sneaker-market source.
func NewSneakFind(client sneakfind.Client, key string, routing *Routing) *SneakFindSource {
	return &SneakFindSource{client: client, key: key, routing: routing}
}

func (s *SneakFindSource) Kind() model.SourceKind { return model.SourceSneakFind }

func (s *SneakFindSource) Available() bool {
	return len(s.key) >= sneakFindKeyMinLen
}

func (s *SneakFindSource) Applicable(item model.Item) bool {
	return s.routing.MatchesVocabulary(item, model.CategorySneakers)
}

func (s *SneakFindSource) Fetch(ctx context.Context, item model.Item) (*model.SourceObservation, error) {
	products, err := s.client.SearchProducts(ctx, searchQuery(item))
	if err != nil {
		return nil, eris.Wrapf(err, "sneakfind: search %q", item.Title)
	}

	product := strongProductMatch(products, item.Title)
	if product == nil {
		return nil, nil
	}

	// Deadstock (unworn) pairs trade at the last-sale price; anything
	// worn is closer to the rolling average.
	cents := product.Market.AverageSaleCents
	sample := product.Market.DeadstockSold
	if item.Condition == model.ConditionNewSealed {
		cents = product.Market.LastSaleCents
	}
	if cents == 0 {
		cents = product.Market.LastSaleCents
	}
	if cents == 0 {
		return nil, nil
	}
	if sample == 0 {
		sample = product.Market.SalesLast72h
	}
	if sample == 0 {
		sample = 1
	}

	params := s.routing.Params(model.SourceSneakFind)
	return &model.SourceObservation{
		Source:     model.SourceSneakFind,
		PriceCents: cents,
		Weight:     params.Weight,
		Confidence: params.FixedConfidence,
		SampleSize: sample,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// strongProductMatch returns the single product whose name or style id
// matches the title, or nil when ambiguous.
func strongProductMatch(products []sneakfind.Product, title string) *sneakfind.Product {
	if len(products) == 1 {
		return &products[0]
	}

	folded := foldForMatch(title)
	var match *sneakfind.Product
	for i := range products {
		name := foldForMatch(products[i].Name)
		styleID := foldForMatch(products[i].StyleID)
		if name == folded || (styleID != "" && strings.Contains(folded, styleID)) {
			if match != nil {
				return nil
			}
			match = &products[i]
		}
	}
	return match
}
