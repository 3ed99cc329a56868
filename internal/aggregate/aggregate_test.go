package aggregate

import (
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/require"

    "finmetrics/internal/metrics"
    "finmetrics/internal/provider"
)

type fakeFetcher map[provider.ID]metrics.Record

func (f fakeFetcher) Fetch(_ context.Context, ticker string, id provider.ID) (metrics.Record, error) {
    rec, ok := f[id]
    if !ok { return metrics.Record{}, provider.Unreachable(id, ticker, errors.New("timeout")) }
    return rec, nil
}

func record(id provider.ID, pe, eps metrics.Value) metrics.Record {
    return metrics.NewRecord("AAPL", id.String(), metrics.ViewCore, map[metrics.Key]metrics.Value{
        metrics.PERatio: pe,
        metrics.EPS:     eps,
    })
}

func TestFetchAll_KeepsProviderOrder(t *testing.T) {
    f := fakeFetcher{
        provider.Yahoo: record(provider.Yahoo, metrics.Of(28.5), metrics.Of(6.1)),
        provider.FMP:   record(provider.FMP, metrics.Of(30), metrics.NA),
    }

    out := FetchAll(t.Context(), f, []provider.ID{provider.Yahoo, provider.Finnhub, provider.FMP}, "AAPL")

    require.Len(t, out, 3)
    require.Equal(t, provider.Yahoo, out[0].Provider)
    require.NoError(t, out[0].Err)
    require.ErrorIs(t, out[1].Err, provider.ErrUnreachable)
    require.Equal(t, provider.FMP, out[2].Provider)
    require.False(t, AllFailed(out))
    require.True(t, AllFailed(out[1:2]))
}

func TestCompare_MedianAndCoverage(t *testing.T) {
    in := []Sourced{
        {Provider: provider.Yahoo, Record: record(provider.Yahoo, metrics.Of(28.5), metrics.Of(6))},
        {Provider: provider.Finnhub, Err: provider.EmptyResult(provider.Finnhub, "AAPL")},
        {Provider: provider.FMP, Record: record(provider.FMP, metrics.Of(30), metrics.NA)},
        {Provider: provider.AlphaVantage, Record: record(provider.AlphaVantage, metrics.Of(29), metrics.Of(6.5))},
    }

    c := Compare("AAPL", metrics.ViewCore, in)

    require.Len(t, c.Rows, 5)
    pe := c.Rows[0]
    require.Equal(t, metrics.PERatio, pe.Key)
    require.Equal(t, 3, pe.Available)
    require.Equal(t, metrics.Of(29), pe.Median)
    require.Equal(t, []Cell{
        {Provider: "yahoo", Value: metrics.Of(28.5)},
        {Provider: "fmp", Value: metrics.Of(30)},
        {Provider: "alphavantage", Value: metrics.Of(29)},
    }, pe.Values)

    eps := c.Rows[1]
    require.Equal(t, 2, eps.Available)
    require.Equal(t, metrics.Of(6.25), eps.Median)

    ebitda := c.Rows[2]
    require.Zero(t, ebitda.Available)
    require.Equal(t, metrics.NA, ebitda.Median)

    require.Equal(t, map[string]string{"finnhub": "Finnhub has no data for AAPL. Check the ticker or try a different source."}, c.Errors)
}
