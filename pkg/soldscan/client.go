// Package soldscan is a client for the SoldScan scraped sold-listings
// service. SoldScan aggregates completed marketplace sales that the
// official APIs do not expose.
package soldscan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/collectorvault/appraise/internal/resilience"
)

const defaultBaseURL = "https://api.soldscan.io/v1"

// Client fetches scraped sold listings.
type Client interface {
	SoldListings(ctx context.Context, query string, days int) ([]Sale, error)
}

// Sale is one scraped completed sale. PriceCents is already normalized by
// the service.
type Sale struct {
	Title      string    `json:"title"`
	PriceCents int64     `json:"price_cents"`
	SoldAt     time.Time `json:"sold_at"`
	Source     string    `json:"source"`
}

type listingsResponse struct {
	Query string `json:"query"`
	Sales []Sale `json:"sales"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(rc resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = rc
	}
}

type httpClient struct {
	key     string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
	limiter *rate.Limiter
}

// NewClient creates a SoldScan client.
func NewClient(key string, opts ...Option) Client {
	c := &httpClient{
		key:     key,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
		// SoldScan enforces a strict scrape-friendly quota.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SoldListings(ctx context.Context, query string, days int) ([]Sale, error) {
	if days <= 0 {
		days = 90
	}
	q := url.Values{
		"q":    {query},
		"days": {strconv.Itoa(days)},
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("soldscan", "sold_listings")
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]Sale, error) {
		return c.doList(ctx, q)
	})
}

func (c *httpClient) doList(ctx context.Context, q url.Values) ([]Sale, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "soldscan: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sold?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "soldscan: create request")
	}
	req.Header.Set("X-Api-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "soldscan: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "soldscan: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("soldscan: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result listingsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "soldscan: unmarshal response")
	}
	return result.Sales, nil
}
