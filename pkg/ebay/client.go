// Package ebay is a client for the eBay Buy Browse API, scoped to the
// sold/completed listing search the valuation engine needs.
package ebay

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

const defaultBaseURL = "https://api.ebay.com/buy/browse/v1"

// Client searches sold listings.
type Client interface {
	SearchSold(ctx context.Context, query string, limit int) (*SearchResult, error)
}

// SearchResult is the response from item_summary/search.
type SearchResult struct {
	Total         int           `json:"total"`
	ItemSummaries []ItemSummary `json:"itemSummaries"`
}

// ItemSummary is one sold listing.
type ItemSummary struct {
	ItemID    string `json:"itemId"`
	Title     string `json:"title"`
	Price     Money  `json:"price"`
	Condition string `json:"condition"`
	SoldDate  string `json:"itemEndDate"` // RFC 3339
}

// Money is eBay's decimal-string money shape.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Cents converts the decimal string to integer cents. Returns false when
// the value is missing or unparsable.
func (m Money) Cents() (int64, bool) {
	if m.Value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m.Value, 64)
	if err != nil {
		return 0, false
	}
	return int64(f*100 + 0.5), true
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
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Browse API client using an OAuth application token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchSold(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := url.Values{
		"q":      {query},
		"filter": {"buyingOptions:{FIXED_PRICE|AUCTION},soldItemsOnly:true"},
		"limit":  {strconv.Itoa(limit)},
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("ebay", "search_sold")
	}

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*SearchResult, error) {
		return c.doSearch(ctx, q)
	})
}

func (c *httpClient) doSearch(ctx context.Context, q url.Values) (*SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "ebay: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/item_summary/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "ebay: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ebay: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ebay: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("ebay: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "ebay: unmarshal response")
	}
	return &result, nil
}
