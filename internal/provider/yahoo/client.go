package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"

	"finmetrics/internal/httpx"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

const (
	baseURL = "https://query1.finance.yahoo.com"

	// modules requested from quoteSummary, in flattening precedence order.
	modules = "summaryDetail,defaultKeyStatistics,financialData,price"
)

// Client is a client for the Yahoo Finance quoteSummary API.
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

// ClientOption is a configuration option for the Yahoo client.
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

// NewClient creates a new Yahoo client. The crumb is optional; Yahoo asks
// for one (together with its cookie header) on some networks.
func NewClient(crumb string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if crumb != "" {
		c.query.Set("crumb", crumb)
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]any `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// QuoteSummary fetches the summary modules of ticker and returns them
// flattened into one payload. An empty result wraps provider.ErrEmptyResult.
func (c *Client) QuoteSummary(ctx context.Context, ticker string) (provider.Payload, error) {
	query := url.Values{}
	for k, vs := range c.query {
		query[k] = append([]string(nil), vs...)
	}
	query.Set("modules", modules)

	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(ticker), query.Encode())

	var body quoteSummaryResponse
	if err := httpx.GetJSON(ctx, c.httpClient, u, c.header, &body); err != nil {
		return nil, err
	}
	if e := body.QuoteSummary.Error; e != nil && len(body.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", provider.ErrEmptyResult, e.Description)
	}
	if len(body.QuoteSummary.Result) == 0 || body.QuoteSummary.Result[0] == nil {
		return nil, provider.ErrEmptyResult
	}
	return Flatten(body.QuoteSummary.Result[0]), nil
}

// Flatten merges the module objects of one quoteSummary result into a single
// payload. Fields of earlier modules win on collision, unless the earlier
// value is not a number (Yahoo sends {} for unknown fields) and the later one is.
//
//	{"summaryDetail": {"trailingPE": {"raw": 28.5}}, "financialData": {"ebitda": {...}}}
//	-> {"trailingPE": {"raw": 28.5}, "ebitda": {...}}
func Flatten(result map[string]any) provider.Payload {
	out := provider.Payload{}
	merge := func(module any) {
		fields, ok := module.(map[string]any)
		if !ok {
			return
		}
		for k, v := range fields {
			cur, seen := out[k]
			if !seen || (!metrics.Number(cur).Available() && metrics.Number(v).Available()) {
				out[k] = v
			}
		}
	}
	order := []string{"summaryDetail", "defaultKeyStatistics", "financialData", "price"}
	for _, name := range order {
		merge(result[name])
	}
	rest := make([]string, 0, len(result))
	for name := range result {
		if !slices.Contains(order, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		merge(result[name])
	}
	return out
}
