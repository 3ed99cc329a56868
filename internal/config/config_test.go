package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finmetrics/internal/config"
	"finmetrics/internal/metrics"
	"finmetrics/internal/provider"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "LOG_FORMAT", "FETCH_TIMEOUT", "METRICS_VIEW", "FETCH_CONCURRENCY",
		"CACHE_ENABLED", "CACHE_TTL", "CACHE_BACKEND", "REDIS_ADDR", "REDIS_PASSWORD", "HISTORY_FILE",
		"YAHOO_CRUMB", "YAHOO_COOKIE", "YAHOO_ENABLED", "YAHOO_BASE_URL",
		"ALPHA_VANTAGE_API_KEY", "ALPHA_VANTAGE_ENABLED", "ALPHA_VANTAGE_BASE_URL",
		"FINNHUB_API_KEY", "FINNHUB_ENABLED", "FINNHUB_BASE_URL",
		"FMP_API_KEY", "FMP_ENABLED", "FMP_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, metrics.ViewCore, cfg.View())
	require.Equal(t, time.Hour, cfg.Cache.TTL)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, "ticker_history.csv", cfg.History.File)
	for _, id := range provider.All {
		require.Truef(t, cfg.Provider(id).Enabled, "%s enabled by default", id)
	}
	require.Equal(t, 5, cfg.Provider(provider.AlphaVantage).MaxRequestsPerMinute)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
fetch:
  view: extended
  timeout: 3s
  concurrency: 2
cache:
  enabled: false
providers:
  finnhub:
    enabled: false
  fmp:
    api_key: from-file
    base_url: http://fmp.local
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, metrics.ViewExtended, cfg.View())
	require.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 2, cfg.Fetch.Concurrency)
	require.False(t, cfg.Cache.Enabled, "explicit false survives defaults")
	require.False(t, cfg.Providers.Finnhub.Enabled)
	require.True(t, cfg.Providers.Yahoo.Enabled)
	require.Equal(t, "from-file", cfg.Providers.FMP.APIKey)
	require.Equal(t, "http://fmp.local", cfg.Providers.FMP.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("METRICS_VIEW", "full")
	t.Setenv("FETCH_TIMEOUT", "5")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("FMP_API_KEY", "from-env")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "av-key")
	t.Setenv("FINNHUB_ENABLED", "no")
	t.Setenv("YAHOO_BASE_URL", "http://yahoo.local")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  fmp:\n    api_key: from-file\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "7000", cfg.Server.Port)
	require.Equal(t, metrics.ViewExtended, cfg.View())
	require.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "from-env", cfg.Providers.FMP.APIKey)
	require.Equal(t, "av-key", cfg.Providers.AlphaVantage.APIKey)
	require.False(t, cfg.Providers.Finnhub.Enabled)
	require.Equal(t, "http://yahoo.local", cfg.Providers.Yahoo.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	cases := map[string]string{
		"view":        "fetch:\n  view: everything\n",
		"concurrency": "fetch:\n  concurrency: 0\n",
		"log level":   "log:\n  level: loud\n",
		"backend":     "cache:\n  backend: memcached\n",
		"base url":    "providers:\n  yahoo:\n    base_url: not a url\n",
		"yaml":        "fetch: [\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		_, err := config.Load(path)
		require.Errorf(t, err, name)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
