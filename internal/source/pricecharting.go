package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/pricecharting"
)

// priceChartingTokenLen is the length of a well-formed API token.
const priceChartingTokenLen = 40

// PriceChartingSource prices items against the PriceCharting catalog. It
// only applies to items linked to a catalog entry; the lookup is by id,
// not by search, so the answer is a single curated quote.
type PriceChartingSource struct {
	client  pricecharting.Client
	token   string
	routing *Routing
}

// NewPriceCharting creates the catalog-price source.
func NewPriceCharting(client pricecharting.Client, token string, routing *Routing) *PriceChartingSource {
	return &PriceChartingSource{client: client, token: token, routing: routing}
}

func (s *PriceChartingSource) Kind() model.SourceKind { return model.SourcePriceCharting }

func (s *PriceChartingSource) Available() bool {
	return len(s.token) == priceChartingTokenLen
}

func (s *PriceChartingSource) Applicable(item model.Item) bool {
	return item.HasCatalogLink()
}

// conditionField selects which catalog price tier answers a condition.
// Anything without a direct tier falls back to the loose price.
func conditionField(p *pricecharting.Product, cond model.Condition) int64 {
	var cents int64
	switch cond {
	case model.ConditionNewSealed:
		cents = p.NewPrice
	case model.ConditionCompleteInBox:
		cents = p.CIBPrice
	case model.ConditionGraded:
		cents = p.GradedPrice
	default:
		cents = p.LoosePrice
	}
	if cents == 0 {
		cents = p.LoosePrice
	}
	return cents
}

func (s *PriceChartingSource) Fetch(ctx context.Context, item model.Item) (*model.SourceObservation, error) {
	product, err := s.client.GetProduct(ctx, item.CatalogID)
	if err != nil {
		return nil, eris.Wrapf(err, "pricecharting: fetch %s", item.CatalogID)
	}

	cents := conditionField(product, item.Condition)
	if cents == 0 {
		return nil, nil
	}

	params := s.routing.Params(model.SourcePriceCharting)
	return &model.SourceObservation{
		Source:     model.SourcePriceCharting,
		PriceCents: cents,
		Weight:     params.Weight,
		Confidence: params.FixedConfidence,
		SampleSize: 1,
		ObservedAt: time.Now().UTC(),
	}, nil
}
