package finnhub

import (
	"context"

	"finmetrics/internal/httpx"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

// Config configures the Finnhub source.
type Config struct {
	BaseURL string
	APIKey  string
	View    metrics.View
}

// Table maps the stock/metric "metric" object onto canonical keys. Finnhub
// reports returns in percent and monetary amounts in millions.
var Table = provider.Table{
	metrics.PERatio:    provider.FirstOf(provider.Field("peBasicExclExtraTTM"), provider.Field("peTTM")),
	metrics.EPS:        provider.FirstOf(provider.Field("epsTTM"), provider.Field("epsBasicExclExtraItemsTTM")),
	metrics.EBITDA:     provider.Scaled(provider.Field("ebitda"), 1e6),
	metrics.CashFlow:   provider.Scaled(provider.Field("freeCashFlowTTM"), 1e6),
	metrics.Revenue:    provider.Scaled(provider.Field("revenueTTM"), 1e6),
	metrics.ROE:        provider.Scaled(provider.Field("roeTTM"), 0.01),
	metrics.ROA:        provider.Scaled(provider.Field("roaTTM"), 0.01),
	metrics.DebtEquity: provider.Field("totalDebt/totalEquityAnnual"),
	metrics.MarketCap:  provider.Scaled(provider.Field("marketCapitalization"), 1e6),
}

// Adapt turns a "metric" payload into a canonical record.
func Adapt(ticker string, view metrics.View, p provider.Payload) metrics.Record {
	return Table.Apply(ticker, provider.Finnhub, view, p)
}

// Source fetches canonical records from Finnhub.
type Source struct {
	client *Client
	view   metrics.View
}

// New creates a Finnhub source performing requests through doer.
func New(cfg Config, doer httpx.Doer) *Source {
	return &Source{
		client: NewClient(cfg.APIKey, WithBaseURL(cfg.BaseURL), WithHTTPClient(doer)),
		view:   cfg.View,
	}
}

func (s *Source) ID() provider.ID { return provider.Finnhub }

func (s *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
	p, err := s.client.BasicFinancials(ctx, ticker)
	if err != nil {
		return metrics.Record{}, provider.Failed(provider.Finnhub, ticker, err)
	}
	return Adapt(ticker, s.view, p), nil
}
