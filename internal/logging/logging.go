package logging

import (
    "fmt"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New builds a zap logger. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
    var lvl zapcore.Level
    if err := lvl.UnmarshalText([]byte(level)); err != nil {
        return nil, fmt.Errorf("log level %q: %w", level, err)
    }

    var cfg zap.Config
    switch format {
    case "", "json":
        cfg = zap.NewProductionConfig()
    case "console":
        cfg = zap.NewDevelopmentConfig()
    default:
        return nil, fmt.Errorf("unknown log format %q", format)
    }
    cfg.Level = zap.NewAtomicLevelAt(lvl)
    cfg.OutputPaths = []string{"stderr"}
    cfg.ErrorOutputPaths = []string{"stderr"}
    return cfg.Build()
}
