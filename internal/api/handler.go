package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"finmetrics/internal/aggregate"
	"finmetrics/internal/batch"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
	"finmetrics/internal/report"
)

// Backend is the wired fetch pipeline; *app.App satisfies it.
type Backend interface {
	Normalizer(view metrics.View) *provider.Normalizer
	DefaultView() metrics.View
	Concurrency() int
	History() *report.History
}

// Handler serves the metrics API.
type Handler struct {
	b   Backend
	log zerolog.Logger
}

func NewHandler(b Backend, log zerolog.Logger) *Handler {
	return &Handler{b: b, log: log}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/providers", h.Providers)
	g.GET("/metrics", h.Metrics)
	g.GET("/metrics/batch", h.Batch)
	g.GET("/metrics/compare", h.Compare)
	g.GET("/metrics/chart", h.Chart)
	g.GET("/metrics/csv", h.CSV)
	g.GET("/metrics/text", h.Text)
	g.GET("/history", h.History)
}

type providerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Providers lists the enabled providers.
func (h *Handler) Providers(c echo.Context) error {
	ids := h.b.Normalizer(h.b.DefaultView()).Providers()
	out := make([]providerInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, providerInfo{ID: id.String(), Name: id.DisplayName()})
	}
	return dataResponse(c, http.StatusOK, out)
}

type metricsQuery struct {
	Ticker   string `query:"ticker" validate:"required,max=16"`
	Provider string `query:"provider" default:"yahoo" validate:"required"`
	View     string `query:"view" validate:"omitempty,oneof=core basic extended full all"`
}

type batchQuery struct {
	Tickers  string `query:"tickers" validate:"required,max=512"`
	Provider string `query:"provider" default:"yahoo" validate:"required"`
	View     string `query:"view" validate:"omitempty,oneof=core basic extended full all"`
}

// resolve parses the provider and view parameters.
func (h *Handler) resolve(providerName, viewName string) (provider.ID, metrics.View, error) {
	id, err := provider.ParseID(providerName)
	if err != nil {
		return 0, 0, err
	}
	view := h.b.DefaultView()
	if viewName != "" {
		if view, err = metrics.ParseView(viewName); err != nil {
			return 0, 0, err
		}
	}
	return id, view, nil
}

// fetchOne validates the query and fetches a single record. On failure the
// response has already been written and ok is false.
func (h *Handler) fetchOne(c echo.Context) (rec metrics.Record, ok bool, err error) {
	var q metricsQuery
	if verrs := readAndValidate(c, &q); verrs != nil {
		return rec, false, dataResponse(c, http.StatusBadRequest, verrs)
	}
	id, view, err := h.resolve(q.Provider, q.View)
	if err != nil {
		return rec, false, fetchErrorResponse(c, err)
	}

	rec, err = h.b.Normalizer(view).Fetch(c.Request().Context(), q.Ticker, id)
	if err != nil {
		return rec, false, fetchErrorResponse(c, err)
	}
	if hist := h.b.History(); hist != nil {
		if err := hist.Append(rec.Ticker(), id.DisplayName()); err != nil {
			h.log.Warn().Err(err).Msg("history append failed")
		}
	}
	return rec, true, nil
}

// Metrics returns one canonical record.
func (h *Handler) Metrics(c echo.Context) error {
	rec, ok, err := h.fetchOne(c)
	if !ok {
		return err
	}
	return dataResponse(c, http.StatusOK, rec)
}

type chartData struct {
	Ticker   string         `json:"ticker"`
	Provider string         `json:"provider"`
	Series   []report.Point `json:"series"`
}

// Chart returns the numeric values of a record for plotting.
func (h *Handler) Chart(c echo.Context) error {
	rec, ok, err := h.fetchOne(c)
	if !ok {
		return err
	}
	return dataResponse(c, http.StatusOK, chartData{Ticker: rec.Ticker(), Provider: rec.Provider(), Series: report.ChartSeries(rec)})
}

// CSV downloads a record as Metric,Value CSV.
func (h *Handler) CSV(c echo.Context) error {
	rec, ok, err := h.fetchOne(c)
	if !ok {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rec); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_%s.csv", strings.ToUpper(rec.Ticker()), rec.Provider())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Text returns the plain text table of a record, as sent by email.
func (h *Handler) Text(c echo.Context) error {
	rec, ok, err := h.fetchOne(c)
	if !ok {
		return err
	}
	return c.String(http.StatusOK, report.Text(rec))
}

type batchItem struct {
	Ticker string          `json:"ticker"`
	Record *metrics.Record `json:"record,omitempty"`
	Error  string          `json:"error,omitempty"`
	Status int             `json:"status"`
}

// Batch fetches several tickers from one provider. Per-ticker failures are
// reported inline; the request itself succeeds.
func (h *Handler) Batch(c echo.Context) error {
	var q batchQuery
	if verrs := readAndValidate(c, &q); verrs != nil {
		return dataResponse(c, http.StatusBadRequest, verrs)
	}
	id, view, err := h.resolve(q.Provider, q.View)
	if err != nil {
		return fetchErrorResponse(c, err)
	}
	tickers := batch.SplitTickers(q.Tickers)
	if len(tickers) == 0 {
		return fetchErrorResponse(c, provider.ErrInvalidTicker)
	}

	results := batch.Run(c.Request().Context(), h.b.Normalizer(view), id, tickers, h.b.Concurrency())
	items := make([]batchItem, 0, len(results))
	for _, r := range results {
		item := batchItem{Ticker: r.Ticker, Status: StatusOf(r.Err)}
		if r.Err != nil {
			item.Error = provider.UserMessage(r.Err)
		} else {
			rec := r.Record
			item.Record = &rec
		}
		items = append(items, item)
	}
	return dataResponse(c, http.StatusOK, items)
}

type compareQuery struct {
	Ticker string `query:"ticker" validate:"required,max=16"`
	View   string `query:"view" validate:"omitempty,oneof=core basic extended full all"`
}

// Compare fetches one ticker from every enabled provider and lines the
// values up per metric. It fails only when no provider produced a record.
func (h *Handler) Compare(c echo.Context) error {
	var q compareQuery
	if verrs := readAndValidate(c, &q); verrs != nil {
		return dataResponse(c, http.StatusBadRequest, verrs)
	}
	view := h.b.DefaultView()
	if q.View != "" {
		var err error
		if view, err = metrics.ParseView(q.View); err != nil {
			return fetchErrorResponse(c, err)
		}
	}
	ticker := strings.TrimSpace(q.Ticker)
	if ticker == "" {
		return fetchErrorResponse(c, provider.ErrInvalidTicker)
	}

	n := h.b.Normalizer(view)
	results := aggregate.FetchAll(c.Request().Context(), n, n.Providers(), ticker)
	cmp := aggregate.Compare(ticker, view, results)
	if len(results) > 0 && aggregate.AllFailed(results) {
		status := StatusOf(results[0].Err)
		return c.JSON(status, Response{Status: status, Message: provider.UserMessage(results[0].Err), Data: cmp})
	}
	return dataResponse(c, http.StatusOK, cmp)
}

// History returns the fetch history log.
func (h *Handler) History(c echo.Context) error {
	hist := h.b.History()
	if hist == nil {
		return dataResponse(c, http.StatusOK, []report.HistoryEntry{})
	}
	entries, err := hist.Entries()
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []report.HistoryEntry{}
	}
	return dataResponse(c, http.StatusOK, entries)
}
