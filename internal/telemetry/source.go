package telemetry

import (
	"context"
	"errors"
	"time"

	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

// Source instruments the wrapped source.
type Source struct {
	S provider.Source
	R *Recorder
}

func (s *Source) ID() provider.ID { return s.S.ID() }

func (s *Source) Fetch(ctx context.Context, ticker string) (metrics.Record, error) {
	name := s.S.ID().String()
	gauge := s.R.inflight.WithLabelValues(name)
	gauge.Inc()
	defer gauge.Dec()

	start := time.Now()
	rec, err := s.S.Fetch(ctx, ticker)
	s.R.RecordFetch(name, Outcome(err), time.Since(start).Seconds())
	if err == nil {
		for _, k := range rec.Missing() {
			s.R.RecordMissing(name, k)
		}
	}
	return rec, err
}

// Outcome classifies a fetch error for labelling.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, provider.ErrEmptyResult):
		return OutcomeEmpty
	case errors.Is(err, provider.ErrUnreachable):
		return OutcomeUnreachable
	}
	return OutcomeError
}
