package yahoo

import (
	"context"
	"net/http"

	"finmetrics/internal/httpx"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

// Config configures the Yahoo source. Cookie is sent verbatim as the Cookie
// header and usually accompanies a Crumb.
type Config struct {
	BaseURL string
	Crumb   string
	Cookie  string
	View    metrics.View
}

// Table maps quoteSummary fields onto canonical keys.
var Table = provider.Table{
	metrics.PERatio: provider.FirstOf(
		provider.Field("trailingPE"),
		provider.Ratio(provider.Field("currentPrice"), provider.Field("trailingEps")),
	),
	metrics.EPS:        provider.Field("trailingEps"),
	metrics.EBITDA:     provider.Field("ebitda"),
	metrics.CashFlow:   provider.Field("operatingCashflow"),
	metrics.Revenue:    provider.Field("totalRevenue"),
	metrics.ROE:        provider.Field("returnOnEquity"),
	metrics.ROA:        provider.Field("returnOnAssets"),
	metrics.DebtEquity: provider.Scaled(provider.Field("debtToEquity"), 0.01),
	metrics.MarketCap:  provider.Field("marketCap"),
}

// Adapt turns a flattened quoteSummary payload into a canonical record.
func Adapt(ticker string, view metrics.View, p provider.Payload) metrics.Record {
	return Table.Apply(ticker, provider.Yahoo, view, p)
}

// Source fetches canonical records from Yahoo Finance.
type Source struct {
	client *Client
	view   metrics.View
}

// New creates a Yahoo source performing requests through doer.
func New(cfg Config, doer httpx.Doer) *Source {
	opts := []ClientOption{WithBaseURL(cfg.BaseURL), WithHTTPClient(doer)}
	if cfg.Cookie != "" {
		opts = append(opts, WithHeader(http.Header{"Cookie": {cfg.Cookie}}))
	}
	return &Source{client: NewClient(cfg.Crumb, opts...), view: cfg.View}
}

func (s *Source) ID() provider.ID { return provider.Yahoo }

func (s *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
	p, err := s.client.QuoteSummary(ctx, ticker)
	if err != nil {
		return metrics.Record{}, provider.Failed(provider.Yahoo, ticker, err)
	}
	return Adapt(ticker, s.view, p), nil
}
