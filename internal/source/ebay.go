package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/ebay"
)

// ebayTokenMinLen is the minimum length of a plausible OAuth token.
const ebayTokenMinLen = 32

// EbaySource averages recent sold listings from the official Browse API.
// Confidence scales with how many sold listings matched, and the adapter
// derives trend and volatility from the recent-vs-older sale buckets.
type EbaySource struct {
	client  ebay.Client
	token   string
	routing *Routing
}

// NewEbay creates the official sold-listings source.
func NewEbay(client ebay.Client, token string, routing *Routing) *EbaySource {
	return &EbaySource{client: client, token: token, routing: routing}
}

func (s *EbaySource) Kind() model.SourceKind { return model.SourceEbay }

func (s *EbaySource) Available() bool {
	return len(s.token) >= ebayTokenMinLen
}

func (s *EbaySource) Applicable(item model.Item) bool {
	return item.Title != ""
}

func (s *EbaySource) Fetch(ctx context.Context, item model.Item) (*model.SourceObservation, error) {
	result, err := s.client.SearchSold(ctx, searchQuery(item), 50)
	if err != nil {
		return nil, eris.Wrapf(err, "ebay: search %q", item.Title)
	}

	var sales []pricedSale
	for _, sum := range result.ItemSummaries {
		cents, ok := sum.Price.Cents()
		if !ok || cents <= 0 {
			continue
		}
		soldAt, _ := time.Parse(time.RFC3339, sum.SoldDate)
		sales = append(sales, pricedSale{cents: cents, soldAt: soldAt})
	}
	if len(sales) == 0 {
		return nil, nil
	}

	params := s.routing.Params(model.SourceEbay)
	confidence := params.BaseConfidence + params.PerListing*len(sales)
	if confidence > params.ConfidenceCeiling {
		confidence = params.ConfidenceCeiling
	}

	return &model.SourceObservation{
		Source:     model.SourceEbay,
		PriceCents: averageCents(sales),
		Weight:     params.WeightTiers.WeightFor(len(sales)),
		Confidence: confidence,
		SampleSize: len(sales),
		Trend:      classifyTrend(sales),
		Volatility: classifyVolatility(sales),
		ObservedAt: time.Now().UTC(),
	}, nil
}
