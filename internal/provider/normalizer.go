package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"finmetrics/internal/metrics"
)

// Normalizer dispatches fetches to the registered source of each provider.
type Normalizer struct {
	sources map[ID]Source
	log     zerolog.Logger
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithLogger sets the logger used for fetch failures.
func WithLogger(l zerolog.Logger) NormalizerOption {
	return func(n *Normalizer) { n.log = l }
}

// NewNormalizer registers sources by their ID. A later source with the same
// ID replaces an earlier one.
func NewNormalizer(sources []Source, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{sources: make(map[ID]Source, len(sources)), log: zerolog.Nop()}
	for _, s := range sources {
		if s == nil {
			continue
		}
		n.sources[s.ID()] = s
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Providers returns the registered provider ids in display order.
func (n *Normalizer) Providers() []ID {
	out := make([]ID, 0, len(n.sources))
	for _, id := range All {
		if _, ok := n.sources[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Fetch returns the canonical record of ticker from provider id.
func (n *Normalizer) Fetch(ctx context.Context, ticker string, id ID) (metrics.Record, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return metrics.Record{}, ErrInvalidTicker
	}
	src, ok := n.sources[id]
	if !ok {
		return metrics.Record{}, fmt.Errorf("%w: %s", ErrUnsupported, id)
	}
	rec, err := src.Fetch(ctx, ticker)
	if err != nil {
		n.log.Warn().Err(err).Str("provider", id.String()).Str("ticker", ticker).Msg("fetch failed")
		return metrics.Record{}, err
	}
	return rec, nil
}
