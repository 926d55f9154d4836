// Package justtcg is a client for the JustTCG trading card price API.
package justtcg

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

const defaultBaseURL = "https://api.justtcg.com/v1"

// Client searches trading cards and their market prices.
type Client interface {
	SearchCards(ctx context.Context, query string) ([]Card, error)
}

// Card is one card with per-condition market prices.
type Card struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Game     string    `json:"game"`
	Set      string    `json:"set"`
	Number   string    `json:"number"`
	Variants []Variant `json:"variants"`
}

// Variant is a printing/condition combination with a market price in USD.
type Variant struct {
	Condition string  `json:"condition"` // "Near Mint", "Lightly Played", ...
	Printing  string  `json:"printing"`
	Price     float64 `json:"price"`
}

// PriceCents returns the variant price in integer cents.
func (v Variant) PriceCents() int64 {
	return int64(v.Price*100 + 0.5)
}

type searchResponse struct {
	Data []Card `json:"data"`
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

// NewClient creates a JustTCG client.
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
		limiter: rate.NewLimiter(2, 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchCards(ctx context.Context, query string) ([]Card, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "justtcg: rate limit wait")
	}

	q := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cards?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "justtcg: create request")
	}
	req.Header.Set("X-Api-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "justtcg: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "justtcg: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("justtcg: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "justtcg: unmarshal response")
	}
	return result.Data, nil
}
