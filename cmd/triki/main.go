package main

import (
    "context"
    "encoding/json"
    "errors"
    "flag"
    "fmt"
    "math/rand"
    "os"
    "os/signal"
    "sync/atomic"
    "syscall"
    "time"

    "go.uber.org/zap"

    "github.com/jaminalder/triki/internal/ai"
    "github.com/jaminalder/triki/internal/arena"
    "github.com/jaminalder/triki/internal/config"
    "github.com/jaminalder/triki/internal/console"
    "github.com/jaminalder/triki/internal/logging"
    "github.com/jaminalder/triki/internal/session"
)

var (
    configPath = flag.String("config", os.Getenv("TRIKI_CONFIG"), "Path to a YAML config file")
    verbose    = flag.Bool("v", false, "Log at the configured level instead of warnings only")
)

func usage() {
    fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [arena [arena flags]]\n", os.Args[0])
    flag.PrintDefaults()
}

func main() {
    flag.Usage = usage
    flag.Parse()

    cfg, err := config.Load(*configPath)
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(2)
    }
    log, err := logging.New(logSettings(cfg, *verbose))
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(2)
    }
    defer log.Sync()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    if flag.Arg(0) == "arena" {
        err = runArena(ctx, cfg, log, flag.Args()[1:])
    } else {
        err = runConsole(ctx, cfg, log)
    }
    if err != nil && !errors.Is(err, context.Canceled) {
        log.Error("triki stopped", zap.Error(err))
        os.Exit(1)
    }
}

// logSettings keeps the console quiet unless -v is given; the format always
// follows the config.
func logSettings(cfg *config.Config, verbose bool) (level, format string) {
    if !verbose {
        return "warn", cfg.LogFormat
    }
    return cfg.LogLevel, cfg.LogFormat
}

func runConsole(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
    opts := []session.Option{session.WithHumanMark(cfg.Human())}
    if cfg.Seed != 0 {
        opts = append(opts, session.WithRand(rand.New(rand.NewSource(cfg.Seed))))
    }
    c := console.New(os.Stdin, os.Stdout,
        console.WithLogger(log),
        console.WithDelay(cfg.AIDelay),
        console.WithSessionOptions(opts...))
    return c.Run(ctx)
}

func runArena(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
    fs := flag.NewFlagSet("arena", flag.ExitOnError)
    xName := fs.String("x", "hard", "Strategy playing X: easy, medium or hard")
    oName := fs.String("o", "medium", "Strategy playing O: easy, medium or hard")
    games := fs.Int("games", 1000, "Number of games to play")
    workers := fs.Int("workers", 4, "Number of worker goroutines")
    if err := fs.Parse(args); err != nil {
        return err
    }
    if *games <= 0 || *workers <= 0 {
        return fmt.Errorf("games and workers must be positive")
    }

    seed := cfg.Seed
    if seed == 0 {
        seed = time.Now().UnixNano()
    }
    next := func() int64 { return atomic.AddInt64(&seed, 1) }

    factory := func(name string) (arena.Factory, error) {
        d, err := ai.ParseDifficulty(name)
        if err != nil {
            return nil, err
        }
        return arena.FromDifficulty(d, next)
    }
    x, err := factory(*xName)
    if err != nil {
        return err
    }
    o, err := factory(*oName)
    if err != nil {
        return err
    }

    a := arena.New(x, o)
    a.Games = *games
    a.Workers = *workers
    a.Log = log
    sum, runErr := a.Run(ctx)

    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    if err := enc.Encode(sum); err != nil {
        return err
    }
    return runErr
}
