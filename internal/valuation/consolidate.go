package valuation

import (
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/collectorvault/appraise/internal/model"
)

// ErrNoObservations reports a consolidation pass with nothing to merge.
var ErrNoObservations = eris.New("no pricing sources available")

// Consolidate merges source observations into one weighted valuation.
//
// Raw weights are normalized to sum to 1, so the weighted average always
// lands inside [min price, max price] of the contributing observations.
// Observation order is preserved from the fan-out so audits can correlate
// the output with fetch timing. Given the same observations the output is
// exactly reproducible.
func Consolidate(observations []model.SourceObservation, now time.Time) (*model.ConsolidatedValuation, error) {
	if len(observations) == 0 {
		return nil, ErrNoObservations
	}

	var totalWeight float64
	for _, obs := range observations {
		totalWeight += obs.Weight
	}

	sources := make([]model.SourceObservation, len(observations))
	copy(sources, observations)

	var value, confidence float64
	minCents, maxCents := sources[0].PriceCents, sources[0].PriceCents
	for i := range sources {
		if totalWeight > 0 {
			sources[i].Weight = sources[i].Weight / totalWeight
		} else {
			// Degenerate all-zero weights: treat contributors equally.
			sources[i].Weight = 1 / float64(len(sources))
		}
		value += float64(sources[i].PriceCents) * sources[i].Weight
		confidence += float64(sources[i].Confidence) * sources[i].Weight

		if sources[i].PriceCents < minCents {
			minCents = sources[i].PriceCents
		}
		if sources[i].PriceCents > maxCents {
			maxCents = sources[i].PriceCents
		}
	}

	cv := &model.ConsolidatedValuation{
		ValueCents: int64(math.Round(value)),
		Confidence: int(math.Round(confidence)),
		Sources:    sources,
		Trend:      model.TrendStable,
		Volatility: model.VolatilityLow,
		CreatedAt:  now,
	}

	// Trend and volatility pass through from the first sold-listings
	// observation that tracked them; the consolidator does not recompute.
	for _, obs := range sources {
		if obs.Trend != "" {
			cv.Trend = obs.Trend
			cv.Volatility = obs.Volatility
			break
		}
	}

	if minCents != maxCents {
		cv.Range = &model.PriceRange{
			MinCents: minCents,
			MaxCents: maxCents,
			Display:  model.FormatRange(minCents, maxCents),
		}
	}

	return cv, nil
}
