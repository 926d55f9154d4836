package ebay

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

func TestSearchSold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item_summary/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		assert.Equal(t, "charizard base set", r.URL.Query().Get("q"))
		assert.Contains(t, r.URL.Query().Get("filter"), "soldItemsOnly:true")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total": 2,
			"itemSummaries": [
				{"itemId": "v1|1", "title": "Charizard Base Set", "price": {"value": "305.00", "currency": "USD"}, "itemEndDate": "2026-08-20T10:00:00Z"},
				{"itemId": "v1|2", "title": "Charizard Base Set PSA", "price": {"value": "410.50", "currency": "USD"}, "itemEndDate": "2026-08-22T14:30:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))

	result, err := client.SearchSold(context.Background(), "charizard base set", 50)
	require.NoError(t, err)
	require.Len(t, result.ItemSummaries, 2)

	cents, ok := result.ItemSummaries[0].Price.Cents()
	require.True(t, ok)
	assert.Equal(t, int64(30500), cents)
}

func TestSearchSold_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total": 0, "itemSummaries": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(3)))

	result, err := client.SearchSold(context.Background(), "query", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchSold_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL), WithRetryConfig(fastRetry(3)))

	_, err := client.SearchSold(context.Background(), "query", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMoneyCents(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
		ok    bool
	}{
		{"whole_dollars", "305", 30500, true},
		{"with_cents", "410.50", 41050, true},
		{"rounds_fractional_cents", "19.999", 2000, true},
		{"empty", "", 0, false},
		{"garbage", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Money{Value: tt.value}.Cents()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
