// Package pricecharting is a minimal client for the PriceCharting product
// price API. Prices come back in pennies across several condition tiers.
package pricecharting

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

const defaultBaseURL = "https://www.pricecharting.com/api"

// Client looks up catalog products and their tiered prices.
type Client interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// Product is one catalog entry. Price fields are pennies; zero means the
// tier has no quote.
type Product struct {
	ID          string `json:"id"`
	ProductName string `json:"product-name"`
	ConsoleName string `json:"console-name"`
	LoosePrice  int64  `json:"loose-price"`
	CIBPrice    int64  `json:"cib-price"`
	NewPrice    int64  `json:"new-price"`
	GradedPrice int64  `json:"graded-price"`
	BoxOnly     int64  `json:"box-only-price"`
}

type searchResponse struct {
	Status   string    `json:"status"`
	Products []Product `json:"products"`
}

type productResponse struct {
	Status string `json:"status"`
	Product
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

// WithRateLimiter overrides the default request rate limiter.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a PriceCharting API client.
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
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GetProduct(ctx context.Context, productID string) (*Product, error) {
	q := url.Values{"t": {c.token}, "id": {productID}}
	var resp productResponse
	if err := c.get(ctx, "/product", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, eris.Errorf("pricecharting: status %q for product %s", resp.Status, productID)
	}
	return &resp.Product, nil
}

func (c *httpClient) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	q := url.Values{"t": {c.token}, "q": {query}}
	var resp searchResponse
	if err := c.get(ctx, "/products", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, eris.Errorf("pricecharting: status %q for query %q", resp.Status, query)
	}
	return resp.Products, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "pricecharting: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "pricecharting: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "pricecharting: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "pricecharting: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("pricecharting: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "pricecharting: unmarshal response")
	}
	return nil
}
