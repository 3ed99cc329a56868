package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog"

    "finmetrics/internal/api"
    "finmetrics/internal/app"
    "finmetrics/internal/config"
    "finmetrics/internal/logger"
)

func main() {
    // Logs before the configured logger exists
    boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

    // Config
    cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
    if err != nil {
        boot.Fatal().Err(err).Msg("config")
    }

    log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
    if err != nil {
        boot.Fatal().Err(err).Msg("logger")
    }

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    a, err := app.New(ctx, cfg, log)
    if err != nil {
        log.Fatal().Err(err).Msg("wiring providers")
    }
    defer a.Close()

    e := api.NewServer(api.NewHandler(a, log), a.Recorder().Handler(), log)

    srv := &http.Server{
        Addr:              ":" + cfg.Server.Port,
        Handler:           withCORS(withGzip(withTimeout(e, cfg.Server.RequestTimeout))),
        ReadHeaderTimeout: 5 * time.Second,
        ReadTimeout:       15 * time.Second,
        WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
        IdleTimeout:       60 * time.Second,
    }

    go func() {
        log.Info().Str("addr", srv.Addr).Str("view", a.DefaultView().String()).Msg("server listening")
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("server")
        }
    }()

    // graceful shutdown
    <-ctx.Done()
    log.Info().Msg("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    if err := srv.Shutdown(shutdownCtx); err != nil {
        log.Error().Err(err).Msg("shutdown")
    }
}
