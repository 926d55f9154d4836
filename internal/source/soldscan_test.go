package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorvault/appraise/internal/model"
	"github.com/collectorvault/appraise/pkg/soldscan"
)

func scanSales(cents ...int64) []soldscan.Sale {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sales := make([]soldscan.Sale, len(cents))
	for i, c := range cents {
		sales[i] = soldscan.Sale{PriceCents: c, SoldAt: base.AddDate(0, 0, i)}
	}
	return sales
}

func TestSoldScan_Available(t *testing.T) {
	r := DefaultRouting()

	assert.True(t, NewSoldScan(&fakeSoldScanClient{}, testLongKey, r).Available())
	assert.False(t, NewSoldScan(&fakeSoldScanClient{}, "short", r).Available())
}

func TestSoldScan_Fetch(t *testing.T) {
	client := &fakeSoldScanClient{sales: scanSales(28000, 31500, 30000)}
	s := NewSoldScan(client, testLongKey, DefaultRouting())

	obs, err := s.Fetch(context.Background(), model.Item{Title: "EarthBound SNES"})
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, model.SourceSoldScan, obs.Source)
	assert.Equal(t, int64(29833), obs.PriceCents)
	// 45 base + 5 per listing.
	assert.Equal(t, 60, obs.Confidence)
	assert.Equal(t, 0.3, obs.Weight)
	// Lookback from routing params.
	assert.Equal(t, 90, client.lastDays)
}

func TestSoldScan_Fetch_ConfidenceCeiling(t *testing.T) {
	cents := make([]int64, 30)
	for i := range cents {
		cents[i] = 1000
	}
	s := NewSoldScan(&fakeSoldScanClient{sales: scanSales(cents...)}, testLongKey, DefaultRouting())

	obs, err := s.Fetch(context.Background(), model.Item{Title: "item"})
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, 90, obs.Confidence)
	assert.Equal(t, 0.7, obs.Weight)
}

func TestSoldScan_Fetch_SkipsZeroPrices(t *testing.T) {
	sales := scanSales(5000)
	sales = append(sales, soldscan.Sale{PriceCents: 0})
	s := NewSoldScan(&fakeSoldScanClient{sales: sales}, testLongKey, DefaultRouting())

	obs, err := s.Fetch(context.Background(), model.Item{Title: "item"})
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, 1, obs.SampleSize)
}

func TestSoldScan_Fetch_NoSales(t *testing.T) {
	s := NewSoldScan(&fakeSoldScanClient{}, testLongKey, DefaultRouting())

	obs, err := s.Fetch(context.Background(), model.Item{Title: "item"})
	require.NoError(t, err)
	assert.Nil(t, obs)
}

func TestSoldScan_Fetch_ClientError(t *testing.T) {
	s := NewSoldScan(&fakeSoldScanClient{err: errProviderDown}, testLongKey, DefaultRouting())

	_, err := s.Fetch(context.Background(), model.Item{Title: "item"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soldscan: search")
}
