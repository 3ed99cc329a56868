package finnhub_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finmetrics/internal/httpx/httpxmock"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
	"finmetrics/internal/provider/finnhub"
)

const metricBody = `{
  "metric": {
    "peTTM": 29.1,
    "epsTTM": 6.1,
    "ebitda": 130000,
    "freeCashFlowTTM": 99584,
    "revenueTTM": 383285,
    "roeTTM": 156.08,
    "roaTTM": 27.5,
    "totalDebt/totalEquityAnnual": 1.79,
    "marketCapitalization": 2950000
  },
  "metricType": "all",
  "series": {"annual": {}},
  "symbol": "AAPL"
}`

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestFetch_Metric(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	ctrl := gomock.NewController(t)
	doer := httpxmock.NewMockDoer(ctrl)

	// Assert: stub the Do method
	doer.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/v1/stock/metric", req.URL.Path)
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
			require.Equal(t, "all", req.URL.Query().Get("metric"))
			require.Equal(t, "test-token", req.URL.Query().Get("token"))
			return jsonResponse(http.StatusOK, metricBody), nil
		}).
		Times(1)

	src := finnhub.New(finnhub.Config{APIKey: "test-token", View: metrics.ViewExtended}, doer)

	// Act
	rec, err := src.Fetch(t.Context(), "AAPL")

	// Assert: fallbacks and unit conversions applied
	require.NoError(t, err)
	require.Empty(t, rec.Missing())
	require.Equal(t, metrics.Of(29.1), rec.Get(metrics.PERatio), "falls back to peTTM")
	require.Equal(t, metrics.Of(6.1), rec.Get(metrics.EPS))
	require.Equal(t, metrics.Of(130000000000), rec.Get(metrics.EBITDA), "millions to base units")
	require.Equal(t, metrics.Of(99584000000), rec.Get(metrics.CashFlow))
	require.Equal(t, metrics.Of(383285000000), rec.Get(metrics.Revenue))
	require.Equal(t, metrics.Of(1.79), rec.Get(metrics.DebtEquity))
	require.Equal(t, metrics.Of(2950000000000), rec.Get(metrics.MarketCap))

	roe, _ := rec.Get(metrics.ROE).Float()
	require.InDelta(t, 1.5608, roe, 1e-9)
}

func TestFetch_EmptyMetricIsEmptyResult(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	doer := httpxmock.NewMockDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusOK, `{"metric":{},"metricType":"","series":{},"symbol":""}`), nil)

	_, err := finnhub.New(finnhub.Config{}, doer).Fetch(t.Context(), "ZZZZ")

	require.ErrorIs(t, err, provider.ErrEmptyResult)
}

func TestFetch_ForbiddenIsUnreachable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	doer := httpxmock.NewMockDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(jsonResponse(http.StatusForbidden, `{"error":"Invalid API key"}`), nil)

	_, err := finnhub.New(finnhub.Config{}, doer).Fetch(t.Context(), "AAPL")

	require.ErrorIs(t, err, provider.ErrUnreachable)
}

func TestAdapt_PrefersBasicPE(t *testing.T) {
	t.Parallel()

	rec := finnhub.Adapt("AAPL", metrics.ViewCore, provider.Payload{"peBasicExclExtraTTM": 28.0, "peTTM": 29.1, "epsTTM": nil})

	require.Equal(t, metrics.Of(28), rec.Get(metrics.PERatio))
	require.Equal(t, metrics.NA, rec.Get(metrics.EPS))
}
