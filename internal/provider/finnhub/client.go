package finnhub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"finmetrics/internal/httpx"
	"finmetrics/internal/provider"
)

const baseURL = "https://finnhub.io"

// Client is a client for the Finnhub API.
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

// ClientOption is a configuration option for the Finnhub client.
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

// NewClient creates a new Finnhub client.
func NewClient(token string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if token != "" {
		// https://finnhub.io/docs/api/authentication
		c.query.Set("token", token)
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type metricResponse struct {
	Symbol     string         `json:"symbol"`
	MetricType string         `json:"metricType"`
	Metric     map[string]any `json:"metric"`
}

// BasicFinancials fetches the "all" metric set of symbol. Finnhub answers an
// unknown symbol with an empty metric object, which wraps
// provider.ErrEmptyResult.
func (c *Client) BasicFinancials(ctx context.Context, symbol string) (provider.Payload, error) {
	query := url.Values{}
	for k, vs := range c.query {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("symbol", symbol)
	query.Set("metric", "all")

	var body metricResponse
	u := fmt.Sprintf("%s/api/v1/stock/metric?%s", c.baseURL, query.Encode())
	if err := httpx.GetJSON(ctx, c.httpClient, u, c.header, &body); err != nil {
		return nil, err
	}
	if len(body.Metric) == 0 {
		return nil, provider.ErrEmptyResult
	}
	return provider.Payload(body.Metric), nil
}
