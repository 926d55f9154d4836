package source

import (
	"math"
	"sort"
	"time"

	"github.com/collectorvault/appraise/internal/model"
)

// pricedSale is the provider-independent shape the sold-listings adapters
// reduce their native responses to before classification.
type pricedSale struct {
	cents  int64
	soldAt time.Time
}

// averageCents returns the mean price. Callers guarantee len > 0.
func averageCents(sales []pricedSale) int64 {
	var sum int64
	for _, s := range sales {
		sum += s.cents
	}
	return int64(math.Round(float64(sum) / float64(len(sales))))
}

// classifyTrend splits sales into a recent bucket (newest third, at least
// one sale) and an older bucket, then compares their average prices. A
// move beyond ±5% is a trend; anything inside that band is stable, as is
// any sample too small to split.
func classifyTrend(sales []pricedSale) model.Trend {
	if len(sales) < 4 {
		return model.TrendStable
	}

	sorted := make([]pricedSale, len(sales))
	copy(sorted, sales)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].soldAt.After(sorted[j].soldAt) })

	recentN := len(sorted) / 3
	if recentN < 1 {
		recentN = 1
	}
	recent := averageCents(sorted[:recentN])
	older := averageCents(sorted[recentN:])
	if older == 0 {
		return model.TrendStable
	}

	change := (float64(recent) - float64(older)) / float64(older)
	switch {
	case change > 0.05:
		return model.TrendUp
	case change < -0.05:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

// classifyVolatility buckets the coefficient of variation of sale prices:
// under 15% is low, under 35% medium, anything wider high.
func classifyVolatility(sales []pricedSale) model.Volatility {
	if len(sales) < 2 {
		return model.VolatilityLow
	}

	mean := float64(averageCents(sales))
	if mean == 0 {
		return model.VolatilityLow
	}

	var sumSq float64
	for _, s := range sales {
		d := float64(s.cents) - mean
		sumSq += d * d
	}
	cv := math.Sqrt(sumSq/float64(len(sales))) / mean

	switch {
	case cv < 0.15:
		return model.VolatilityLow
	case cv < 0.35:
		return model.VolatilityMedium
	default:
		return model.VolatilityHigh
	}
}
