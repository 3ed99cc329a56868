package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finmetrics/internal/aggregate"
	"finmetrics/internal/api"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
	"finmetrics/internal/provider/providermock"
	"finmetrics/internal/report"
)

type backend struct {
	normalizers map[metrics.View]*provider.Normalizer
	history     *report.History
}

func (b *backend) Normalizer(v metrics.View) *provider.Normalizer { return b.normalizers[v] }
func (b *backend) DefaultView() metrics.View { return metrics.ViewCore }
func (b *backend) Concurrency() int { return 2 }
func (b *backend) History() *report.History { return b.history }

func aapl(view metrics.View) metrics.Record {
	return metrics.NewRecord("AAPL", "yahoo", view, map[metrics.Key]metrics.Value{
		metrics.PERatio: metrics.Of(28.5),
		metrics.EPS:     metrics.Of(6.1),
		metrics.ROE:     metrics.Of(1.56),
	})
}

// newServer wires a yahoo source that knows AAPL, reports ZZZZ as unknown and
// fails with an unreachable error for anything else.
func newServer(t *testing.T) (http.Handler, *report.History) {
	t.Helper()

	ctrl := gomock.NewController(t)
	normalizers := map[metrics.View]*provider.Normalizer{}
	for _, view := range []metrics.View{metrics.ViewCore, metrics.ViewExtended} {
		src := providermock.NewMockSource(ctrl)
		src.EXPECT().ID().Return(provider.Yahoo).AnyTimes()
		src.EXPECT().
			Fetch(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ticker string) (metrics.Record, error) {
				switch ticker {
				case "AAPL":
					return aapl(view), nil
				case "ZZZZ":
					return metrics.Record{}, provider.EmptyResult(provider.Yahoo, ticker)
				}
				return metrics.Record{}, provider.Unreachable(provider.Yahoo, ticker, errors.New("status 500"))
			}).
			AnyTimes()
		normalizers[view] = provider.NewNormalizer([]provider.Source{src})
	}

	hist := report.NewHistory(filepath.Join(t.TempDir(), "history.csv"))
	b := &backend{normalizers: normalizers, history: hist}
	e := api.NewServer(api.NewHandler(b, zerolog.Nop()), promhttp.Handler(), zerolog.Nop())
	return e, hist
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestMetrics_OK(t *testing.T) {
	t.Parallel()

	// Arrange
	srv, hist := newServer(t)

	// Act
	rec := get(t, srv, "/api/metrics?ticker=AAPL&provider=Yahoo%20Finance")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	var got metrics.Record
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.True(t, aapl(metrics.ViewCore).Equal(got))

	entries, err := hist.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Yahoo Finance", entries[0].Source)
}

func TestMetrics_ExtendedView(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/metrics?ticker=AAPL&view=extended")

	require.Equal(t, http.StatusOK, rec.Code)
	var got metrics.Record
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &got))
	require.Equal(t, 9, got.Len())
	require.Equal(t, metrics.Of(1.56), got.Get(metrics.ROE))
}

func TestMetrics_ErrorStatuses(t *testing.T) {
	t.Parallel()

	srv, hist := newServer(t)

	cases := map[string]int{
		"/api/metrics?ticker=ZZZZ":                    http.StatusNotFound,
		"/api/metrics?ticker=DOWN":                    http.StatusBadGateway,
		"/api/metrics?ticker=AAPL&provider=bloomberg": http.StatusBadRequest,
		"/api/metrics?ticker=AAPL&provider=fmp":       http.StatusBadRequest,
		"/api/metrics?ticker=AAPL&view=weird":         http.StatusBadRequest,
		"/api/metrics":                                http.StatusBadRequest,
		"/api/metrics?ticker=%20%20":                  http.StatusBadRequest,
	}
	for target, status := range cases {
		rec := get(t, srv, target)
		require.Equalf(t, status, rec.Code, target)
		require.Equalf(t, status, decode(t, rec).Status, target)
	}

	entries, err := hist.Entries()
	require.NoError(t, err)
	require.Empty(t, entries, "failures are not logged")
}

func TestMetrics_ValidationErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/metrics")

	var errs []api.ValidationError
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &errs))
	require.Equal(t, []api.ValidationError{{Code: "ERR_REQUIRED", Field: "ticker", Message: "ticker is required"}}, errs)
}

func TestMetrics_UserMessages(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	env := decode(t, get(t, srv, "/api/metrics?ticker=DOWN"))
	require.Equal(t, "Could not reach Yahoo Finance for DOWN. Please try again later or pick a different source.", env.Message)
	require.NotContains(t, env.Message, "status 500")
}

func TestBatch(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/metrics/batch?tickers=AAPL,ZZZZ,DOWN")

	require.Equal(t, http.StatusOK, rec.Code)
	var items []struct {
		Ticker string          `json:"ticker"`
		Record *metrics.Record `json:"record"`
		Error  string          `json:"error"`
		Status int             `json:"status"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &items))
	require.Len(t, items, 3)
	require.Equal(t, "AAPL", items[0].Ticker)
	require.NotNil(t, items[0].Record)
	require.Equal(t, http.StatusNotFound, items[1].Status)
	require.Contains(t, items[1].Error, "ZZZZ")
	require.Equal(t, http.StatusBadGateway, items[2].Status)
	require.Nil(t, items[2].Record)
}

func TestChart(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/metrics/chart?ticker=AAPL")

	var data struct {
		Series []report.Point `json:"series"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Equal(t, []report.Point{
		{Label: "P/E Ratio", Key: "PE_RATIO", Value: 28.5},
		{Label: "EPS", Key: "EPS", Value: 6.1},
	}, data.Series)
}

func TestCSVAndText(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/metrics/csv?ticker=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), `filename="AAPL_yahoo.csv"`)
	require.Contains(t, rec.Body.String(), "Metric,Value\nP/E Ratio,28.5\n")

	rec = get(t, srv, "/api/metrics/text?ticker=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "EBITDA     N/A")
}

func TestProvidersHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/providers")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":"yahoo","name":"Yahoo Finance"}]`, string(decode(t, rec).Data))

	rec = get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	require.JSONEq(t, `[]`, string(decode(t, get(t, srv, "/api/history")).Data))

	get(t, srv, "/api/metrics?ticker=AAPL")
	var entries []report.HistoryEntry
	require.NoError(t, json.Unmarshal(decode(t, get(t, srv, "/api/history")).Data, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "AAPL", entries[0].Ticker)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusOK, api.StatusOf(nil))
	require.Equal(t, http.StatusInternalServerError, api.StatusOf(errors.New("other")))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	srv, _ := newServer(t)

	rec := get(t, srv, "/api/metrics/compare?ticker=AAPL")
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp aggregate.Comparison
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cmp))
	require.Len(t, cmp.Rows, 5)
	require.Equal(t, metrics.Of(28.5), cmp.Rows[0].Median)
	require.Equal(t, 1, cmp.Rows[0].Available)

	rec = get(t, srv, "/api/metrics/compare?ticker=DOWN")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, http.StatusBadGateway, decode(t, rec).Status)
}
