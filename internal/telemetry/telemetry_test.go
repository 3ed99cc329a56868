package telemetry_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
	"finmetrics/internal/provider/providermock"
	"finmetrics/internal/telemetry"
)

func TestSource_RecordsOutcomes(t *testing.T) {
	t.Parallel()

	// Arrange: one success with a missing value, one empty, one unreachable
	ctrl := gomock.NewController(t)
	src := providermock.NewMockSource(ctrl)
	src.EXPECT().ID().Return(provider.FMP).AnyTimes()
	gomock.InOrder(
		src.EXPECT().Fetch(gomock.Any(), "AAPL").Return(metrics.NewRecord("AAPL", "fmp", metrics.ViewCore, map[metrics.Key]metrics.Value{
			metrics.PERatio:  metrics.Of(30),
			metrics.EPS:      metrics.Of(6.1),
			metrics.EBITDA:   metrics.Of(1),
			metrics.CashFlow: metrics.Of(2),
		}), nil),
		src.EXPECT().Fetch(gomock.Any(), "ZZZZ").Return(metrics.Record{}, provider.EmptyResult(provider.FMP, "ZZZZ")),
		src.EXPECT().Fetch(gomock.Any(), "MSFT").Return(metrics.Record{}, provider.Unreachable(provider.FMP, "MSFT", errors.New("500"))),
	)

	rec := telemetry.New(false)
	s := &telemetry.Source{S: src, R: rec}

	// Act
	_, err := s.Fetch(t.Context(), "AAPL")
	require.NoError(t, err)
	_, err = s.Fetch(t.Context(), "ZZZZ")
	require.Error(t, err)
	_, err = s.Fetch(t.Context(), "MSFT")
	require.Error(t, err)

	// Assert
	expected := `
# HELP finmetrics_fetches_total Total number of provider fetches by outcome
# TYPE finmetrics_fetches_total counter
finmetrics_fetches_total{outcome="empty",provider="fmp"} 1
finmetrics_fetches_total{outcome="ok",provider="fmp"} 1
finmetrics_fetches_total{outcome="unreachable",provider="fmp"} 1
# HELP finmetrics_missing_values_total Canonical metrics resolved to N/A on successful fetches
# TYPE finmetrics_missing_values_total counter
finmetrics_missing_values_total{key="REVENUE",provider="fmp"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"finmetrics_fetches_total", "finmetrics_missing_values_total"))
	require.Equal(t, provider.FMP, s.ID())
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	require.Equal(t, telemetry.OutcomeOK, telemetry.Outcome(nil))
	require.Equal(t, telemetry.OutcomeEmpty, telemetry.Outcome(provider.EmptyResult(provider.Yahoo, "X")))
	require.Equal(t, telemetry.OutcomeUnreachable, telemetry.Outcome(provider.Unreachable(provider.Yahoo, "X", nil)))
	require.Equal(t, telemetry.OutcomeError, telemetry.Outcome(provider.ErrInvalidTicker))
}

func TestHandler_ServesRegistry(t *testing.T) {
	t.Parallel()

	rec := telemetry.New(true)
	rec.RecordFetch("yahoo", telemetry.OutcomeOK, 0.2)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `finmetrics_fetches_total{outcome="ok",provider="yahoo"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}
