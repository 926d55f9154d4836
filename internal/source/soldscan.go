package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/soldscan"
)

// soldScanKeyMinLen is the minimum length of a plausible API key.
const soldScanKeyMinLen = 24

// SoldScanSource averages scraped completed sales. Same shape as the
// official sold-listings source but with a lower confidence ceiling, since
// scraped matches are noisier.
type SoldScanSource struct {
	client  soldscan.Client
	key     string
	routing *Routing
}

// NewSoldScan creates the scraped sold-listings source.
func NewSoldScan(client soldscan.Client, key string, routing *Routing) *SoldScanSource {
	return &SoldScanSource{client: client, key: key, routing: routing}
}

func (s *SoldScanSource) Kind() model.SourceKind { return model.SourceSoldScan }

func (s *SoldScanSource) Available() bool {
	return len(s.key) >= soldScanKeyMinLen
}

func (s *SoldScanSource) Applicable(item model.Item) bool {
	return item.Title != ""
}

func (s *SoldScanSource) Fetch(ctx context.Context, item model.Item) (*model.SourceObservation, error) {
	params := s.routing.Params(model.SourceSoldScan)

	listings, err := s.client.SoldListings(ctx, searchQuery(item), params.RecentDays)
	if err != nil {
		return nil, eris.Wrapf(err, "soldscan: search %q", item.Title)
	}

	var sales []pricedSale
	for _, l := range listings {
		if l.PriceCents <= 0 {
			continue
		}
		sales = append(sales, pricedSale{cents: l.PriceCents, soldAt: l.SoldAt})
	}
	if len(sales) == 0 {
		return nil, nil
	}

	confidence := params.BaseConfidence + params.PerListing*len(sales)
	if confidence > params.ConfidenceCeiling {
		confidence = params.ConfidenceCeiling
	}

	return &model.SourceObservation{
		Source:     model.SourceSoldScan,
		PriceCents: averageCents(sales),
		Weight:     params.WeightTiers.WeightFor(len(sales)),
		Confidence: confidence,
		SampleSize: len(sales),
		Trend:      classifyTrend(sales),
		Volatility: classifyVolatility(sales),
		ObservedAt: time.Now().UTC(),
	}, nil
}
