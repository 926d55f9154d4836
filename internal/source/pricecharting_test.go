package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/pricecharting"
)

func TestPriceCharting_Available(t *testing.T) {
	r := DefaultRouting()

	assert.True(t, NewPriceCharting(&fakePCClient{}, testPCToken, r).Available())
	assert.False(t, NewPriceCharting(&fakePCClient{}, "", r).Available())
	assert.False(t, NewPriceCharting(&fakePCClient{}, "short", r).Available())
}

func TestPriceCharting_Applicable(t *testing.T) {
	s := NewPriceCharting(&fakePCClient{}, testPCToken, DefaultRouting())

	assert.True(t, s.Applicable(model.Item{CatalogID: "6910"}))
	assert.False(t, s.Applicable(model.Item{Title: "EarthBound"}))
}

func TestPriceCharting_Fetch_ConditionTiers(t *testing.T) {
	product := &pricecharting.Product{
		ID:          "6910",
		ProductName: "EarthBound",
		LoosePrice:  3000,
		CIBPrice:    18500,
		NewPrice:    150000,
		GradedPrice: 320000,
	}

	tests := []struct {
		name      string
		condition model.Condition
		want      int64
	}{
		{"loose", model.ConditionLoose, 3000},
		{"complete_in_box", model.ConditionCompleteInBox, 18500},
		{"new_sealed", model.ConditionNewSealed, 150000},
		{"graded", model.ConditionGraded, 320000},
		{"other_falls_back_to_loose", model.ConditionOther, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPriceCharting(&fakePCClient{product: product}, testPCToken, DefaultRouting())

			obs, err := s.Fetch(context.Background(), model.Item{CatalogID: "6910", Condition: tt.condition})
			require.NoError(t, err)
			require.NotNil(t, obs)
			assert.Equal(t, model.SourcePriceCharting, obs.Source)
			assert.Equal(t, tt.want, obs.PriceCents)
			assert.Equal(t, 85, obs.Confidence)
			assert.Equal(t, 0.4, obs.Weight)
			assert.Equal(t, 1, obs.SampleSize)
		})
	}
}

func TestPriceCharting_Fetch_MissingTierFallsBackToLoose(t *testing.T) {
	product := &pricecharting.Product{LoosePrice: 3000} // no CIB quote
	s := NewPriceCharting(&fakePCClient{product: product}, testPCToken, DefaultRouting())

	obs, err := s.Fetch(context.Background(), model.Item{CatalogID: "6910", Condition: model.ConditionCompleteInBox})
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, int64(3000), obs.PriceCents)
}

func TestPriceCharting_Fetch_NoPrices(t *testing.T) {
	s := NewPriceCharting(&fakePCClient{product: &pricecharting.Product{}}, testPCToken, DefaultRouting())

	obs, err := s.Fetch(context.Background(), model.Item{CatalogID: "6910"})
	require.NoError(t, err)
	assert.Nil(t, obs)
}

func TestPriceCharting_Fetch_ClientError(t *testing.T) {
	s := NewPriceCharting(&fakePCClient{err: errProviderDown}, testPCToken, DefaultRouting())

	_, err := s.Fetch(context.Background(), model.Item{CatalogID: "6910"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pricecharting: fetch")
}
