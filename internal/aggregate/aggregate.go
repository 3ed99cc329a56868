package aggregate

import (
    "context"
    "sort"

    "finmetrics/internal/batch"
    "finmetrics/internal/metrics"
    "finmetrics/internal/provider"
)

// Sourced is the outcome of one provider for the compared ticker.
type Sourced struct {
    Provider provider.ID
    Record   metrics.Record
    Err      error
}

// Cell is one provider's value of a metric.
type Cell struct {
    Provider string        `json:"provider"`
    Value    metrics.Value `json:"value"`
}

// Row lines up a canonical metric across providers.
type Row struct {
    Key    metrics.Key `json:"key"`
    Label  string      `json:"label"`
    Values []Cell      `json:"values"`
    // Median of the available values, N/A when no provider has one.
    Median    metrics.Value `json:"median"`
    Available int           `json:"available"`
}

// Comparison is the cross-provider view of one ticker.
type Comparison struct {
    Ticker string            `json:"ticker"`
    View   metrics.View      `json:"view"`
    Rows   []Row             `json:"rows"`
    Errors map[string]string `json:"errors,omitempty"`
}

// FetchAll fans out to every provider concurrently and collects partial
// results in the order of ids.
func FetchAll(ctx context.Context, f batch.Fetcher, ids []provider.ID, ticker string) []Sourced {
    type result struct { i int; s Sourced }
    ch := make(chan result, len(ids))
    for i, id := range ids {
        go func() {
            rec, err := f.Fetch(ctx, ticker, id)
            ch <- result{i, Sourced{Provider: id, Record: rec, Err: err}}
        }()
    }
    out := make([]Sourced, len(ids))
    for range ids {
        r := <-ch
        out[r.i] = r.s
    }
    return out
}

// AllFailed reports whether no provider produced a record.
func AllFailed(in []Sourced) bool {
    for _, s := range in {
        if s.Err == nil { return false }
    }
    return true
}

// Compare lines up the successful records key by key, in canonical order of
// view. Failed providers are listed under Errors with their user message and
// contribute no cells.
func Compare(ticker string, view metrics.View, in []Sourced) Comparison {
    c := Comparison{Ticker: ticker, View: view}
    for _, s := range in {
        if s.Err != nil {
            if c.Errors == nil { c.Errors = map[string]string{} }
            c.Errors[s.Provider.String()] = provider.UserMessage(s.Err)
        }
    }

    for _, k := range view.Keys() {
        row := Row{Key: k, Label: k.Label(), Values: []Cell{}}
        var nums []float64
        for _, s := range in {
            if s.Err != nil { continue }
            v := s.Record.Get(k)
            row.Values = append(row.Values, Cell{Provider: s.Provider.String(), Value: v})
            if f, ok := v.Float(); ok { nums = append(nums, f) }
        }
        row.Available = len(nums)
        row.Median = median(nums)
        c.Rows = append(c.Rows, row)
    }
    return c
}

func median(xs []float64) metrics.Value {
    if len(xs) == 0 { return metrics.NA }
    sorted := append([]float64(nil), xs...)
    sort.Float64s(sorted)
    mid := len(sorted) / 2
    if len(sorted)%2 == 1 { return metrics.Of(sorted[mid]) }
    return metrics.Of((sorted[mid-1] + sorted[mid]) / 2)
}
