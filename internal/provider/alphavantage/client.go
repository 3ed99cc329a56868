package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"finmetrics/internal/httpx"
	"finmetrics/internal/provider"
)

const baseURL = "https://www.alphavantage.co"

// ErrRefused is returned when Alpha Vantage answers 200 with a throttling
// note or an error message instead of data.
var ErrRefused = errors.New("request refused")

// Client is a client for the Alpha Vantage fundamentals API.
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

// ClientOption is a configuration option for the Alpha Vantage client.
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

// NewClient creates a new Alpha Vantage client.
func NewClient(key string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		// https://www.alphavantage.co/documentation/
		c.query.Set("apikey", key)
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, function, symbol string) (provider.Payload, error) {
	query := url.Values{}
	for k, vs := range c.query {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("function", function)
	query.Set("symbol", symbol)

	var body provider.Payload
	u := fmt.Sprintf("%s/query?%s", c.baseURL, query.Encode())
	if err := httpx.GetJSON(ctx, c.httpClient, u, c.header, &body); err != nil {
		return nil, err
	}
	for _, k := range []string{"Error Message", "Note", "Information"} {
		if msg, ok := body[k]; ok {
			return nil, fmt.Errorf("%w: %v", ErrRefused, msg)
		}
	}
	return body, nil
}

// Overview fetches the company overview of symbol. An empty object wraps
// provider.ErrEmptyResult.
func (c *Client) Overview(ctx context.Context, symbol string) (provider.Payload, error) {
	body, err := c.get(ctx, "OVERVIEW", symbol)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, provider.ErrEmptyResult
	}
	return body, nil
}

// LatestBalanceSheet returns the most recent annual balance sheet of symbol,
// or an empty payload when none is reported.
func (c *Client) LatestBalanceSheet(ctx context.Context, symbol string) (provider.Payload, error) {
	body, err := c.get(ctx, "BALANCE_SHEET", symbol)
	if err != nil {
		return nil, err
	}
	reports, _ := body["annualReports"].([]any)
	if len(reports) == 0 {
		return provider.Payload{}, nil
	}
	latest, ok := reports[0].(map[string]any)
	if !ok {
		return provider.Payload{}, nil
	}
	return provider.Payload(latest), nil
}
