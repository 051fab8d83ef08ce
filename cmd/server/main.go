package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "net"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/app"
    "github.com/jaminalder/triki/internal/config"
    "github.com/jaminalder/triki/internal/logging"
    "github.com/jaminalder/triki/internal/web"
)

var (
    configPath = flag.String("config", os.Getenv("TRIKI_CONFIG"), "Path to a YAML config file")
    addr       = flag.String("addr", "", "Listen address, overrides the config")
)

func main() {
    flag.Parse()
    cfg, err := config.Load(*configPath)
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(2)
    }
    if *addr != "" {
        cfg.Addr = *addr
    }
    log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(2)
    }
    defer log.Sync()

    svc := app.NewServiceWithOptions(app.Options{
        AIDelay:   cfg.AIDelay,
        HumanMark: cfg.Human(),
        Seed:      cfg.Seed,
        Log:       log,
    })

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    // request contexts end with ctx so event streams and sockets let go on shutdown
    srv := &http.Server{
        Addr:              cfg.Addr,
        Handler:           web.NewServer(svc, log),
        ReadHeaderTimeout: 5 * time.Second,
        BaseContext:       func(net.Listener) context.Context { return ctx },
    }

    errc := make(chan error, 1)
    go func() {
        log.Info("starting server", zap.String("addr", cfg.Addr), zap.Duration("ai_delay", cfg.AIDelay))
        errc <- srv.ListenAndServe()
    }()

    select {
    case err := <-errc:
        if !errors.Is(err, http.ErrServerClosed) {
            log.Fatal("server failed", zap.Error(err))
        }
    case <-ctx.Done():
        log.Info("shutting down")
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if err := srv.Shutdown(shutdownCtx); err != nil {
            log.Warn("shutdown", zap.Error(err))
        }
        svc.Wait()
    }
}
