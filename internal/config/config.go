package config

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/creasty/defaults"
    "github.com/go-playground/validator/v10"
    "github.com/joho/godotenv"
    "gopkg.in/yaml.v3"

    "finmetrics/internal/metrics"
    "finmetrics/internal/provider"
)

type Server struct {
    Port            string        `yaml:"port" default:"8080" validate:"required,numeric"`
    RequestTimeout  time.Duration `yaml:"request_timeout" default:"30s" validate:"gt=0"`
    ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
}

type Log struct {
    Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
    Format string `yaml:"format" default:"json" validate:"oneof=json console"`
    Output string `yaml:"output" default:"stdout" validate:"required"`
}

type Fetch struct {
    Timeout     time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
    View        string        `yaml:"view" default:"core" validate:"oneof=core extended"`
    Concurrency int           `yaml:"concurrency" default:"4" validate:"min=1,max=64"`
}

type Redis struct {
    Addr     string `yaml:"addr" default:"localhost:6379"`
    Password string `yaml:"password"`
    DB       int    `yaml:"db" validate:"min=0"`
    Prefix   string `yaml:"prefix" default:"finmetrics"`
}

type Cache struct {
    Enabled  bool          `yaml:"enabled" default:"true"`
    Backend  string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
    TTL      time.Duration `yaml:"ttl" default:"1h" validate:"min=0"`
    MaxItems int           `yaml:"max_items" default:"10000" validate:"min=0"`
    Redis    Redis         `yaml:"redis"`
}

type History struct {
    Enabled bool   `yaml:"enabled" default:"true"`
    File    string `yaml:"file" default:"ticker_history.csv"`
}

// Provider configures one fundamentals source. Zero rate limits disable
// limiting.
type Provider struct {
    Enabled              bool          `yaml:"enabled" default:"true"`
    BaseURL              string        `yaml:"base_url" validate:"omitempty,url"`
    APIKey               string        `yaml:"api_key"`
    Crumb                string        `yaml:"crumb"`
    Cookie               string        `yaml:"cookie"`
    MaxRequestsPerMinute int           `yaml:"max_requests_per_minute" validate:"min=0"`
    Burst                int           `yaml:"burst" validate:"min=0"`
    MinInterval          time.Duration `yaml:"min_interval" validate:"min=0"`
}

type Providers struct {
    Yahoo        Provider `yaml:"yahoo"`
    AlphaVantage Provider `yaml:"alphavantage"`
    Finnhub      Provider `yaml:"finnhub"`
    FMP          Provider `yaml:"fmp"`
}

type Config struct {
    Server    Server    `yaml:"server"`
    Log       Log       `yaml:"log"`
    Fetch     Fetch     `yaml:"fetch"`
    Cache     Cache     `yaml:"cache"`
    History   History   `yaml:"history"`
    Providers Providers `yaml:"providers"`
}

// Default returns the configuration used when no file or env overrides it.
// Rate limits follow the providers' free tiers.
func Default() Config {
    var cfg Config
    if err := defaults.Set(&cfg); err != nil {
        panic(fmt.Sprintf("config defaults: %v", err))
    }
    cfg.Providers.AlphaVantage.MaxRequestsPerMinute = 5
    cfg.Providers.AlphaVantage.Burst = 1
    cfg.Providers.Finnhub.MaxRequestsPerMinute = 60
    cfg.Providers.Finnhub.Burst = 5
    cfg.Providers.FMP.MaxRequestsPerMinute = 250
    cfg.Providers.FMP.Burst = 5
    cfg.Providers.Yahoo.MinInterval = 200 * time.Millisecond
    return cfg
}

// Load reads YAML config from path on top of Default. If path is empty,
// config.yaml is used when present. A .env file in the working directory is
// loaded first; it never overrides variables already set. Environment
// variables then override select fields, and the result is validated.
func Load(path string) (Config, error) {
    cfg := Default()

    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        return cfg, fmt.Errorf("load .env: %w", err)
    }

    if path == "" {
        if _, err := os.Stat("config.yaml"); err == nil {
            path = "config.yaml"
        }
    }
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil {
            return cfg, fmt.Errorf("read config: %w", err)
        }
        if err := yaml.Unmarshal(b, &cfg); err != nil {
            return cfg, fmt.Errorf("parse config: %w", err)
        }
    }

    applyEnv(&cfg)

    if err := cfg.Validate(); err != nil {
        return cfg, err
    }
    return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
    if err := validate.Struct(c); err != nil {
        return fmt.Errorf("invalid config: %w", err)
    }
    if c.Cache.Enabled && c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
        return errors.New("invalid config: cache.redis.addr is required for the redis backend")
    }
    return nil
}

// View returns the configured metric view.
func (c Config) View() metrics.View {
    v, err := metrics.ParseView(c.Fetch.View)
    if err != nil {
        return metrics.ViewCore
    }
    return v
}

// Provider returns the settings of id.
func (c Config) Provider(id provider.ID) Provider {
    switch id {
    case provider.Yahoo:
        return c.Providers.Yahoo
    case provider.AlphaVantage:
        return c.Providers.AlphaVantage
    case provider.Finnhub:
        return c.Providers.Finnhub
    case provider.FMP:
        return c.Providers.FMP
    }
    return Provider{}
}

func (c *Config) providerRef(id provider.ID) *Provider {
    switch id {
    case provider.Yahoo:
        return &c.Providers.Yahoo
    case provider.AlphaVantage:
        return &c.Providers.AlphaVantage
    case provider.Finnhub:
        return &c.Providers.Finnhub
    case provider.FMP:
        return &c.Providers.FMP
    }
    return nil
}

// envPrefix names the per-provider environment variables, e.g. FMP_API_KEY.
func envPrefix(id provider.ID) string {
    if id == provider.AlphaVantage {
        return "ALPHA_VANTAGE"
    }
    return strings.ToUpper(id.String())
}

func applyEnv(cfg *Config) {
    if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
    if v := os.Getenv("LOG_LEVEL"); v != "" { cfg.Log.Level = strings.ToLower(v) }
    if v := os.Getenv("LOG_FORMAT"); v != "" { cfg.Log.Format = strings.ToLower(v) }
    if d, ok := envDuration("FETCH_TIMEOUT"); ok && d > 0 { cfg.Fetch.Timeout = d }
    if v := os.Getenv("METRICS_VIEW"); v != "" {
        if view, err := metrics.ParseView(v); err == nil { cfg.Fetch.View = view.String() } else { cfg.Fetch.View = v }
    }
    if x, ok := envInt("FETCH_CONCURRENCY"); ok && x > 0 { cfg.Fetch.Concurrency = x }
    if b, ok := envBool("CACHE_ENABLED"); ok { cfg.Cache.Enabled = b }
    if d, ok := envDuration("CACHE_TTL"); ok && d >= 0 { cfg.Cache.TTL = d }
    if v := os.Getenv("CACHE_BACKEND"); v != "" { cfg.Cache.Backend = strings.ToLower(v) }
    if v := os.Getenv("REDIS_ADDR"); v != "" { cfg.Cache.Redis.Addr = v }
    if v := os.Getenv("REDIS_PASSWORD"); v != "" { cfg.Cache.Redis.Password = v }
    if v := os.Getenv("HISTORY_FILE"); v != "" { cfg.History.File = v }
    if v := os.Getenv("YAHOO_CRUMB"); v != "" { cfg.Providers.Yahoo.Crumb = v }
    if v := os.Getenv("YAHOO_COOKIE"); v != "" { cfg.Providers.Yahoo.Cookie = v }

    for _, id := range provider.All {
        p := cfg.providerRef(id)
        prefix := envPrefix(id)
        if b, ok := envBool(prefix + "_ENABLED"); ok { p.Enabled = b }
        if v := os.Getenv(prefix + "_BASE_URL"); v != "" { p.BaseURL = v }
        if v := os.Getenv(prefix + "_API_KEY"); v != "" { p.APIKey = v }
        if x, ok := envInt(prefix + "_MAX_RPM"); ok && x >= 0 { p.MaxRequestsPerMinute = x }
        if x, ok := envInt(prefix + "_BURST"); ok && x > 0 { p.Burst = x }
    }
}

func envInt(key string) (int, bool) {
    v := os.Getenv(key)
    if v == "" {
        return 0, false
    }
    x, err := strconv.Atoi(strings.TrimSpace(v))
    return x, err == nil
}

func envBool(key string) (bool, bool) {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "true", "yes", "y":
        return true, true
    case "0", "false", "no", "n":
        return false, true
    }
    return false, false
}

// envDuration accepts Go durations ("90s") and bare seconds ("90").
func envDuration(key string) (time.Duration, bool) {
    v := strings.TrimSpace(os.Getenv(key))
    if v == "" {
        return 0, false
    }
    if d, err := time.ParseDuration(v); err == nil {
        return d, true
    }
    if x, err := strconv.Atoi(v); err == nil {
        return time.Duration(x) * time.Second, true
    }
    return 0, false
}
