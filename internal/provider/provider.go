package provider

import (
	"context"
	"fmt"
	"strings"

	"finmetrics/internal/metrics"
)

// ID enumerates the supported fundamentals providers.
type ID int

const (
	Yahoo ID = iota + 1
	AlphaVantage
	Finnhub
	FMP
)

// All lists every supported provider in display order.
var All = []ID{Yahoo, AlphaVantage, Finnhub, FMP}

func (id ID) String() string {
	switch id {
	case Yahoo:
		return "yahoo"
	case AlphaVantage:
		return "alphavantage"
	case Finnhub:
		return "finnhub"
	case FMP:
		return "fmp"
	}
	return fmt.Sprintf("provider(%d)", int(id))
}

// DisplayName is the name shown to users.
func (id ID) DisplayName() string {
	switch id {
	case Yahoo:
		return "Yahoo Finance"
	case AlphaVantage:
		return "Alpha Vantage"
	case Finnhub:
		return "Finnhub"
	case FMP:
		return "FMP"
	}
	return id.String()
}

// Valid reports whether id is one of the supported providers.
func (id ID) Valid() bool { return id >= Yahoo && id <= FMP }

// aliases maps squashed spellings to provider ids.
var aliases = map[string]ID{
	"yahoo":                  Yahoo,
	"yahoofinance":           Yahoo,
	"yf":                     Yahoo,
	"alphavantage":           AlphaVantage,
	"av":                     AlphaVantage,
	"finnhub":                Finnhub,
	"fmp":                    FMP,
	"financialmodelingprep":  FMP,
	"financialmodellingprep": FMP,
}

// ParseID resolves user input such as "Yahoo Finance", "alpha-vantage" or "FMP".
func ParseID(s string) (ID, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_', '.':
			continue
		}
		b.WriteRune(r)
	}
	if id, ok := aliases[b.String()]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Source produces canonical records for one provider.
//
//go:generate mockgen -package=providermock -destination=providermock/mock_source.go -source=provider.go Source
type Source interface {
	ID() ID
	Fetch(ctx context.Context, ticker string) (metrics.Record, error)
}

// Payload is a raw, provider-specific decoded JSON object.
type Payload map[string]any

// Lookup walks nested objects along path.
func (p Payload) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(p)
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
