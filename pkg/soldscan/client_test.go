package soldscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectorvault/appraise/internal/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestSoldListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sold", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "earthbound snes", r.URL.Query().Get("q"))
		assert.Equal(t, "30", r.URL.Query().Get("days"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"query": "earthbound snes",
			"sales": [
				{"title": "EarthBound SNES Cart", "price_cents": 28000, "sold_at": "2026-08-15T12:00:00Z", "source": "mercari"},
				{"title": "EarthBound Authentic", "price_cents": 31500, "sold_at": "2026-08-18T09:30:00Z", "source": "ebay"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	sales, err := client.SoldListings(context.Background(), "earthbound snes", 30)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, int64(28000), sales[0].PriceCents)
	assert.Equal(t, "mercari", sales[0].Source)
}

func TestSoldListings_DefaultLookback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "90", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"sales": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	sales, err := client.SoldListings(context.Background(), "query", 0)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestSoldListings_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"sales": [{"title": "x", "price_cents": 100, "sold_at": "2026-08-01T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(3)))

	sales, err := client.SoldListings(context.Background(), "query", 30)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSoldListings_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := client.SoldListings(context.Background(), "query", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}
