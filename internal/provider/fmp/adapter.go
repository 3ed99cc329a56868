package fmp

import (
	"context"
	"errors"

	"finmetrics/internal/httpx"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

// Config configures the FMP source.
type Config struct {
	BaseURL string
	APIKey  string
	View    metrics.View
}

// Table maps profile (and ratios-ttm) fields onto canonical keys.
var Table = provider.Table{
	metrics.PERatio: provider.FirstOf(
		provider.Field("pe"),
		provider.Ratio(provider.Field("price"), provider.Field("eps")),
	),
	metrics.EPS:        provider.Field("eps"),
	metrics.EBITDA:     provider.Field("ebitda"),
	metrics.CashFlow:   provider.Field("freeCashFlow"),
	metrics.Revenue:    provider.Field("revenue"),
	metrics.ROE:        provider.Field("returnOnEquityTTM"),
	metrics.ROA:        provider.Field("returnOnAssetsTTM"),
	metrics.DebtEquity: provider.Field("debtEquityRatioTTM"),
	metrics.MarketCap:  provider.Field("mktCap"),
}

// Adapt turns a profile payload into a canonical record.
func Adapt(ticker string, view metrics.View, p provider.Payload) metrics.Record {
	return Table.Apply(ticker, provider.FMP, view, p)
}

// Source fetches canonical records from FMP.
type Source struct {
	client *Client
	view   metrics.View
}

// New creates an FMP source performing requests through doer.
func New(cfg Config, doer httpx.Doer) *Source {
	return &Source{
		client: NewClient(cfg.APIKey, WithBaseURL(cfg.BaseURL), WithHTTPClient(doer)),
		view:   cfg.View,
	}
}

func (s *Source) ID() provider.ID { return provider.FMP }

func (s *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
	p, err := s.client.Profile(ctx, ticker)
	if err != nil {
		return metrics.Record{}, provider.Failed(provider.FMP, ticker, err)
	}
	if s.view.Has(metrics.ROE) {
		ratios, err := s.client.RatiosTTM(ctx, ticker)
		switch {
		case errors.Is(err, provider.ErrEmptyResult):
			// profile exists, ratios simply unknown
		case err != nil:
			return metrics.Record{}, provider.Unreachable(provider.FMP, ticker, err)
		}
		for k, v := range ratios {
			if _, ok := p[k]; !ok {
				p[k] = v
			}
		}
	}
	return Adapt(ticker, s.view, p), nil
}
