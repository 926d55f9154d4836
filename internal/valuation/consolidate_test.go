package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorvault/appraise/internal/model"
)

var consolidateNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func obs(kind model.SourceKind, cents int64, weight float64, confidence int) model.SourceObservation {
	return model.SourceObservation{
		Source:     kind,
		PriceCents: cents,
		Weight:     weight,
		Confidence: confidence,
		SampleSize: 1,
		ObservedAt: consolidateNow,
	}
}

func TestConsolidate_WeightedAverage(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
		obs(model.SourceEbay, 4000, 0.6, 78),
	}, consolidateNow)
	require.NoError(t, err)

	assert.Equal(t, int64(3600), cv.ValueCents)
	assert.Equal(t, 81, cv.Confidence)
	require.NotNil(t, cv.Range)
	assert.Equal(t, int64(3000), cv.Range.MinCents)
	assert.Equal(t, int64(4000), cv.Range.MaxCents)
	assert.Equal(t, consolidateNow, cv.CreatedAt)
}

func TestConsolidate_NormalizesWeights(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
		obs(model.SourceJustTCG, 4000, 0.7, 90),
		obs(model.SourceEbay, 5000, 0.8, 75),
	}, consolidateNow)
	require.NoError(t, err)

	var sum float64
	for _, s := range cv.Sources {
		sum += s.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// The weighted average always lands inside the observed price range.
	assert.GreaterOrEqual(t, cv.ValueCents, int64(3000))
	assert.LessOrEqual(t, cv.ValueCents, int64(5000))
	assert.GreaterOrEqual(t, cv.Confidence, 75)
	assert.LessOrEqual(t, cv.Confidence, 90)
}

func TestConsolidate_AllZeroWeightsShareEqually(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourceEbay, 1000, 0, 60),
		obs(model.SourceSoldScan, 3000, 0, 80),
	}, consolidateNow)
	require.NoError(t, err)

	assert.Equal(t, int64(2000), cv.ValueCents)
	assert.Equal(t, 70, cv.Confidence)
	assert.Equal(t, 0.5, cv.Sources[0].Weight)
	assert.Equal(t, 0.5, cv.Sources[1].Weight)
}

func TestConsolidate_SingleSource(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
	}, consolidateNow)
	require.NoError(t, err)

	// One contributor: its price and confidence pass through unchanged.
	assert.Equal(t, int64(3000), cv.ValueCents)
	assert.Equal(t, 85, cv.Confidence)
	assert.Equal(t, 1.0, cv.Sources[0].Weight)
	assert.Nil(t, cv.Range)
}

func TestConsolidate_RangeOmittedWhenPricesEqual(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourceEbay, 3000, 0.6, 70),
		obs(model.SourceSoldScan, 3000, 0.3, 60),
	}, consolidateNow)
	require.NoError(t, err)
	assert.Nil(t, cv.Range)
	assert.Equal(t, int64(3000), cv.ValueCents)
}

func TestConsolidate_TrendPassthrough(t *testing.T) {
	withTrend := obs(model.SourceEbay, 4000, 0.6, 78)
	withTrend.Trend = model.TrendUp
	withTrend.Volatility = model.VolatilityMedium

	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
		withTrend,
	}, consolidateNow)
	require.NoError(t, err)

	assert.Equal(t, model.TrendUp, cv.Trend)
	assert.Equal(t, model.VolatilityMedium, cv.Volatility)
}

func TestConsolidate_DefaultTrendWhenNoneTracked(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
	}, consolidateNow)
	require.NoError(t, err)

	assert.Equal(t, model.TrendStable, cv.Trend)
	assert.Equal(t, model.VolatilityLow, cv.Volatility)
}

func TestConsolidate_PreservesObservationOrder(t *testing.T) {
	cv, err := Consolidate([]model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
		obs(model.SourceEbay, 4000, 0.6, 78),
		obs(model.SourceSoldScan, 3500, 0.3, 60),
	}, consolidateNow)
	require.NoError(t, err)

	require.Len(t, cv.Sources, 3)
	assert.Equal(t, model.SourcePriceCharting, cv.Sources[0].Source)
	assert.Equal(t, model.SourceEbay, cv.Sources[1].Source)
	assert.Equal(t, model.SourceSoldScan, cv.Sources[2].Source)
}

func TestConsolidate_DoesNotMutateInput(t *testing.T) {
	input := []model.SourceObservation{
		obs(model.SourcePriceCharting, 3000, 0.4, 85),
		obs(model.SourceEbay, 4000, 0.6, 78),
	}

	_, err := Consolidate(input, consolidateNow)
	require.NoError(t, err)

	assert.Equal(t, 0.4, input[0].Weight)
	assert.Equal(t, 0.6, input[1].Weight)
}

func TestConsolidate_Empty(t *testing.T) {
	_, err := Consolidate(nil, consolidateNow)
	assert.ErrorIs(t, err, ErrNoObservations)
}
