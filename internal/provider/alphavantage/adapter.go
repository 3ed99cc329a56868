package alphavantage

import (
	"context"

	"finmetrics/internal/httpx"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

// Config configures the Alpha Vantage source.
type Config struct {
	BaseURL string
	APIKey  string
	View    metrics.View
}

// Table maps OVERVIEW (and latest annual BALANCE_SHEET) fields onto
// canonical keys. Alpha Vantage reports every value as a string, "None"
// when unknown.
var Table = provider.Table{
	metrics.PERatio:  provider.Field("PERatio"),
	metrics.EPS:      provider.Field("EPS"),
	metrics.EBITDA:   provider.Field("EBITDA"),
	metrics.CashFlow: provider.Field("OperatingCashflow"),
	metrics.Revenue:  provider.Field("RevenueTTM"),
	metrics.ROE:      provider.Field("ReturnOnEquityTTM"),
	metrics.ROA:      provider.Field("ReturnOnAssetsTTM"),
	metrics.DebtEquity: provider.Ratio(
		provider.Field("shortLongTermDebtTotal"),
		provider.Field("totalShareholderEquity"),
	),
	metrics.MarketCap: provider.Field("MarketCapitalization"),
}

// Adapt turns an Alpha Vantage payload into a canonical record.
func Adapt(ticker string, view metrics.View, p provider.Payload) metrics.Record {
	return Table.Apply(ticker, provider.AlphaVantage, view, p)
}

// Source fetches canonical records from Alpha Vantage. The extended view
// costs a second request for the balance sheet.
type Source struct {
	client *Client
	view   metrics.View
}

// New creates an Alpha Vantage source performing requests through doer.
func New(cfg Config, doer httpx.Doer) *Source {
	return &Source{
		client: NewClient(cfg.APIKey, WithBaseURL(cfg.BaseURL), WithHTTPClient(doer)),
		view:   cfg.View,
	}
}

func (s *Source) ID() provider.ID { return provider.AlphaVantage }

func (s *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
	p, err := s.client.Overview(ctx, ticker)
	if err != nil {
		return metrics.Record{}, provider.Failed(provider.AlphaVantage, ticker, err)
	}
	if s.view.Has(metrics.DebtEquity) {
		sheet, err := s.client.LatestBalanceSheet(ctx, ticker)
		if err != nil {
			return metrics.Record{}, provider.Unreachable(provider.AlphaVantage, ticker, err)
		}
		for k, v := range sheet {
			if _, ok := p[k]; !ok {
				p[k] = v
			}
		}
	}
	return Adapt(ticker, s.view, p), nil
}
