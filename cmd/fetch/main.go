package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "finmetrics/internal/app"
    "finmetrics/internal/batch"
    "finmetrics/internal/config"
    "finmetrics/internal/logger"
    "finmetrics/internal/metrics"
    "finmetrics/internal/provider"
    "finmetrics/internal/report"
)

func main() {
    var tickersCSV string
    var providerName string
    var viewName string
    var csvDir string
    var history bool
    var timeout time.Duration
    var configPath string

    flag.StringVar(&tickersCSV, "tickers", getenv("TICKERS", "AAPL"), "comma-separated ticker symbols")
    flag.StringVar(&providerName, "provider", getenv("PROVIDER", "yahoo"), "data source: yahoo, alphavantage, finnhub or fmp")
    flag.StringVar(&viewName, "view", "", "metrics view: core or extended (default from config)")
    flag.StringVar(&csvDir, "csv", "", "directory to write one <TICKER>_<provider>.csv per ticker")
    flag.BoolVar(&history, "history", false, "append fetched tickers to the history log")
    flag.DurationVar(&timeout, "timeout", 0, "overall timeout (0 uses fetch.timeout per ticker)")
    flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
    flag.Parse()

    cfg, err := config.Load(configPath)
    if err != nil {
        fmt.Fprintf(os.Stderr, "config: %v\n", err)
        os.Exit(2)
    }
    // Flags override select fields
    cfg.History.Enabled = history
    if viewName != "" { cfg.Fetch.View = viewName }

    log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Writer: os.Stderr})
    if err != nil {
        fmt.Fprintf(os.Stderr, "logger: %v\n", err)
        os.Exit(2)
    }

    id, err := provider.ParseID(providerName)
    if err != nil { log.Fatal().Err(err).Msg("provider") }
    view, err := metrics.ParseView(cfg.Fetch.View)
    if err != nil { log.Fatal().Err(err).Msg("view") }
    tickers := batch.SplitTickers(tickersCSV)
    if len(tickers) == 0 { log.Fatal().Msg("no tickers provided") }

    ctx := context.Background()
    if timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, timeout)
        defer cancel()
    }

    a, err := app.New(ctx, cfg, log.Level(zerolog.ErrorLevel))
    if err != nil { log.Fatal().Err(err).Msg("wiring providers") }
    defer a.Close()

    results := batch.Run(ctx, a.Normalizer(view), id, tickers, a.Concurrency())
    if err := printResults(os.Stdout, results, csvDir, a.History(), id); err != nil {
        log.Error().Err(err).Msg("writing output")
    }
    for _, r := range results {
        if r.Err != nil {
            log.Warn().Err(r.Err).Str("ticker", r.Ticker).Msg("fetch failed")
        }
    }
    if batch.AllFailed(results) {
        a.Close()
        os.Exit(1)
    }
}

// printResults prints one table per ticker, in input order. Failed tickers
// print their user-facing message instead. A failed CSV or history write is
// collected and never stops the remaining tickers.
func printResults(w io.Writer, results []batch.Result, csvDir string, hist *report.History, id provider.ID) error {
    var errs []error
    for i, r := range results {
        if i > 0 { fmt.Fprintln(w) }
        if r.Err != nil {
            fmt.Fprintf(w, "%s: %s\n", r.Ticker, provider.UserMessage(r.Err))
            continue
        }
        fmt.Fprint(w, report.Text(r.Record))

        if csvDir != "" {
            if err := writeCSVFile(csvDir, r.Record); err != nil {
                errs = append(errs, fmt.Errorf("%s: csv: %w", r.Ticker, err))
            }
        }
        if hist != nil {
            if err := hist.Append(r.Record.Ticker(), id.DisplayName()); err != nil {
                errs = append(errs, fmt.Errorf("%s: history: %w", r.Ticker, err))
            }
        }
    }
    return errors.Join(errs...)
}

func writeCSVFile(dir string, rec metrics.Record) error {
    if err := os.MkdirAll(dir, 0o755); err != nil { return err }
    name := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(rec.Ticker()), rec.Provider()))
    f, err := os.Create(name)
    if err != nil { return err }
    if err := report.WriteCSV(f, rec); err != nil {
        _ = f.Close()
        return err
    }
    return f.Close()
}

func getenv(key, def string) string { if v := os.Getenv(key); v != "" { return v }; return def }
