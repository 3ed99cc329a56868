package batch

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

// Fetcher is satisfied by *provider.Normalizer.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, id provider.ID) (metrics.Record, error)
}

// Result is the outcome of one ticker. Exactly one of Record and Err is set.
type Result struct {
	Ticker string
	Record metrics.Record
	Err    error
}

// Run fetches tickers from provider id with at most concurrency fetches in
// flight (values below 1 mean sequential). Results follow the order of
// tickers and a failure never affects other tickers.
func Run(ctx context.Context, f Fetcher, id provider.ID, tickers []string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(tickers))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			rec, err := f.Fetch(ctx, ticker, id)
			results[i] = Result{Ticker: ticker, Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// AllFailed reports whether results is non-empty and every entry failed.
func AllFailed(results []Result) bool {
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return len(results) > 0
}

// SplitTickers parses a comma or whitespace separated ticker list, dropping
// blanks.
func SplitTickers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
