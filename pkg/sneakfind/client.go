// Package sneakfind is a client for the SneakFind sneaker market API.
package sneakfind

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.sneakfind.dev/v2"

// Client searches sneaker products and their market data.
type Client interface {
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// Product is one sneaker with aggregated market data.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StyleID     string `json:"style_id"`
	Colorway    string `json:"colorway"`
	RetailCents int64  `json:"retail_cents"`
	Market      Market `json:"market"`
}

// Market holds resale market aggregates, in cents.
type Market struct {
	LastSaleCents    int64 `json:"last_sale_cents"`
	AverageSaleCents int64 `json:"average_sale_cents"`
	SalesLast72h     int   `json:"sales_last_72h"`
	DeadstockSold    int   `json:"deadstock_sold"`
}

type searchResponse struct {
	Products []Product `json:"products"`
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

type httpClient struct {
	key     string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a SneakFind client.
func NewClient(key string, opts ...Option) Client {
	c := &httpClient{
		key:     key,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sneakfind: rate limit wait")
	}

	q := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sneakers/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "sneakfind: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sneakfind: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sneakfind: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("sneakfind: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "sneakfind: unmarshal response")
	}
	return result.Products, nil
}
