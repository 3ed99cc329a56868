package fmp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"finmetrics/internal/httpx"
	"finmetrics/internal/provider"
)

const baseURL = "https://financialmodelingprep.com"

// Client is a client for the Financial Modeling Prep API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient httpx.Doer
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// ClientOption is a configuration option for the FMP client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.Doer) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new FMP client.
func NewClient(key string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		c.query.Set("apikey", key)
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// first fetches an FMP list endpoint and returns its first element, or
// provider.ErrEmptyResult for "[]".
func (c *Client) first(ctx context.Context, path, symbol string) (provider.Payload, error) {
	u := fmt.Sprintf("%s%s/%s?%s", c.baseURL, path, url.PathEscape(symbol), c.query.Encode())

	var body []map[string]any
	if err := httpx.GetJSON(ctx, c.httpClient, u, c.header, &body); err != nil {
		return nil, err
	}
	if len(body) == 0 || len(body[0]) == 0 {
		return nil, provider.ErrEmptyResult
	}
	return provider.Payload(body[0]), nil
}

// Profile fetches the company profile of symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (provider.Payload, error) {
	return c.first(ctx, "/api/v3/profile", symbol)
}

// RatiosTTM fetches trailing-twelve-month ratios of symbol.
func (c *Client) RatiosTTM(ctx context.Context, symbol string) (provider.Payload, error) {
	return c.first(ctx, "/api/v3/ratios-ttm", symbol)
}
