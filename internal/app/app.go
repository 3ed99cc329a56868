package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"finmetrics/internal/config"
	"finmetrics/internal/httpx"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
	"finmetrics/internal/provider/alphavantage"
	"finmetrics/internal/provider/cache"
	"finmetrics/internal/provider/finnhub"
	"finmetrics/internal/provider/fmp"
	"finmetrics/internal/provider/ratelimit"
	"finmetrics/internal/provider/yahoo"
	"finmetrics/internal/report"
	"finmetrics/internal/telemetry"
)

// App holds the wired fetch pipeline shared by the server and the CLI.
type App struct {
	cfg         config.Config
	log         zerolog.Logger
	normalizers map[metrics.View]*provider.Normalizer
	recorder    *telemetry.Recorder
	history     *report.History
	closers     []io.Closer
}

type options struct {
	doer     httpx.Doer
	store    cache.Store
	recorder *telemetry.Recorder
}

// Option customises New.
type Option func(*options)

// WithDoer replaces the HTTP client of every provider.
func WithDoer(d httpx.Doer) Option { return func(o *options) { o.doer = d } }

// WithStore replaces the configured cache store.
func WithStore(s cache.Store) Option { return func(o *options) { o.store = s } }

// WithRecorder replaces the telemetry recorder.
func WithRecorder(r *telemetry.Recorder) Option { return func(o *options) { o.recorder = r } }

// New wires every enabled provider as
// cache -> telemetry -> rate limit -> adapter, once per view.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{cfg: cfg, log: log, normalizers: map[metrics.View]*provider.Normalizer{}}

	if o.doer == nil {
		o.doer = httpx.New(cfg.Fetch.Timeout)
	}
	a.recorder = o.recorder
	if a.recorder == nil {
		a.recorder = telemetry.New(true)
	}
	if cfg.History.Enabled && cfg.History.File != "" {
		a.history = report.NewHistory(cfg.History.File)
	}

	store := o.store
	if store == nil && cfg.Cache.Enabled {
		s, err := a.newStore(ctx)
		if err != nil {
			return nil, err
		}
		store = s
	}

	limiters := map[provider.ID]ratelimit.Limiter{}
	for _, id := range provider.All {
		pc := cfg.Provider(id)
		if !pc.Enabled {
			continue
		}
		if requiresKey(id) && pc.APIKey == "" {
			log.Warn().Str("provider", id.String()).Msg("provider enabled without API key; requests will likely be refused")
		}
		switch {
		case pc.MaxRequestsPerMinute > 0:
			limiters[id] = ratelimit.PerMinute(pc.MaxRequestsPerMinute, pc.Burst)
		case pc.MinInterval > 0:
			limiters[id] = ratelimit.NewMinInterval(pc.MinInterval)
		}
	}

	for _, view := range []metrics.View{metrics.ViewCore, metrics.ViewExtended} {
		var sources []provider.Source
		for _, id := range provider.All {
			pc := cfg.Provider(id)
			if !pc.Enabled {
				continue
			}
			var s provider.Source = newSource(id, pc, view, o.doer)
			if l, ok := limiters[id]; ok {
				s = &ratelimit.Source{S: s, L: l}
			}
			s = &telemetry.Source{S: s, R: a.recorder}
			if store != nil && cfg.Cache.TTL > 0 {
				s = &cache.Source{S: s, Store: store, TTL: cfg.Cache.TTL, Timeout: cfg.Fetch.Timeout, View: view, Log: log}
			}
			sources = append(sources, s)
		}
		a.normalizers[view] = provider.NewNormalizer(sources, provider.WithLogger(log))
	}
	return a, nil
}

func (a *App) newStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case "redis":
		rc := a.cfg.Cache.Redis
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		a.closers = append(a.closers, client)
		return cache.NewRedisStore(client, rc.Prefix), nil
	default:
		return cache.NewMemoryStore(a.cfg.Cache.MaxItems), nil
	}
}

func requiresKey(id provider.ID) bool { return id != provider.Yahoo }

func newSource(id provider.ID, pc config.Provider, view metrics.View, doer httpx.Doer) provider.Source {
	switch id {
	case provider.Yahoo:
		return yahoo.New(yahoo.Config{BaseURL: pc.BaseURL, Crumb: pc.Crumb, Cookie: pc.Cookie, View: view}, doer)
	case provider.AlphaVantage:
		return alphavantage.New(alphavantage.Config{BaseURL: pc.BaseURL, APIKey: pc.APIKey, View: view}, doer)
	case provider.Finnhub:
		return finnhub.New(finnhub.Config{BaseURL: pc.BaseURL, APIKey: pc.APIKey, View: view}, doer)
	case provider.FMP:
		return fmp.New(fmp.Config{BaseURL: pc.BaseURL, APIKey: pc.APIKey, View: view}, doer)
	}
	panic(fmt.Sprintf("unknown provider %d", int(id)))
}

// Normalizer returns the pipeline of view.
func (a *App) Normalizer(view metrics.View) *provider.Normalizer { return a.normalizers[view] }

// DefaultView is the configured view.
func (a *App) DefaultView() metrics.View { return a.cfg.View() }

// Concurrency is the configured batch concurrency.
func (a *App) Concurrency() int { return a.cfg.Fetch.Concurrency }

// Recorder returns the telemetry recorder.
func (a *App) Recorder() *telemetry.Recorder { return a.recorder }

// History returns the fetch history log, nil when disabled.
func (a *App) History() *report.History { return a.history }

// Close releases external connections.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
