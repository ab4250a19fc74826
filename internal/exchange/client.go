// Package exchange fetches foreign exchange rates and converts expense
// amounts between currencies, caching rates for the lifetime of a Converter.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public Frankfurter endpoint. It needs no API key.
const DefaultBaseURL = "https://api.frankfurter.app/"

type (
	// LatestRequest asks for the latest rate from one currency to another.
	// Amount is optional; the provider scales the returned rates by it.
	LatestRequest struct {
		From   string
		To     string
		Amount *decimal.Decimal
	}

	// RatesResponse is the provider's answer. Rates maps a currency code to
	// the value of Amount units of Base in that currency.
	RatesResponse struct {
		Amount decimal.Decimal            `json:"amount"`
		Base   string                     `json:"base"`
		Date   string                     `json:"date"`
		Rates  map[string]decimal.Decimal `json:"rates"`
	}

	// RateFetcher loads rates from a remote provider.
	RateFetcher interface {
		Latest(ctx context.Context, req LatestRequest) (*RatesResponse, error)
	}
)

// StatusError is returned for a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rate provider returned %s", e.Status)
}

// Client is a stateless HTTP client for the rate provider. Every call is a
// single attempt: no retry and no timeout beyond the transport defaults.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = h }
}

// WithAPIKey sends key as a bearer token. An empty key sends nothing.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// NewClient creates a Client for baseURL, defaulting to DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ RateFetcher = (*Client)(nil)

// Latest performs GET {base}latest?from=X&to=Y[&amount=N].
func (c *Client) Latest(ctx context.Context, req LatestRequest) (*RatesResponse, error) {
	q := url.Values{}
	q.Set("from", req.From)
	q.Set("to", req.To)
	if req.Amount != nil {
		q.Set("amount", req.Amount.String())
	}
	u := c.baseURL + "latest?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var out RatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return &out, nil
}
