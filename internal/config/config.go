package config

import (
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/mitchellh/mapstructure"
    "gopkg.in/yaml.v2"

    "github.com/jaminalder/triki/internal/domain"
)

// EnvPrefix prefixes the environment overrides, e.g. TRIKI_ADDR.
const EnvPrefix = "TRIKI_"

// Config holds settings shared by the console and the web server.
type Config struct {
    Addr      string        `mapstructure:"addr"`
    AIDelay   time.Duration `mapstructure:"ai_delay"`
    HumanMark string        `mapstructure:"human_mark"`
    Seed      int64         `mapstructure:"seed"`
    LogLevel  string        `mapstructure:"log_level"`
    LogFormat string        `mapstructure:"log_format"`
}

var keys = []string{"addr", "ai_delay", "human_mark", "seed", "log_level", "log_format"}

func defaults() map[string]interface{} {
    return map[string]interface{}{
        "addr":       ":8080",
        "ai_delay":   "500ms",
        "human_mark": "X",
        "seed":       0,
        "log_level":  "info",
        "log_format": "json",
    }
}

// Default returns the built-in configuration.
func Default() *Config {
    cfg, err := decode(defaults())
    if err != nil {
        panic(fmt.Sprintf("config: bad defaults: %v", err))
    }
    return cfg
}

// Load reads the YAML file at path (if any), applies TRIKI_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
    raw := defaults()
    if path != "" {
        b, err := os.ReadFile(path)
        if err != nil {
            return nil, fmt.Errorf("read config: %w", err)
        }
        if err := Merge(raw, b); err != nil {
            return nil, err
        }
    }
    for _, k := range keys {
        if v, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(k)); ok {
            raw[k] = v
        }
    }
    return decode(raw)
}

// Merge overlays the YAML document b onto raw.
func Merge(raw map[string]interface{}, b []byte) error {
    var file map[string]interface{}
    if err := yaml.Unmarshal(b, &file); err != nil {
        return fmt.Errorf("parse config: %w", err)
    }
    for k, v := range file {
        raw[k] = v
    }
    return nil
}

func decode(raw map[string]interface{}) (*Config, error) {
    var cfg Config
    dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
        DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
        WeaklyTypedInput: true,
        ErrorUnused:      true,
        Result:           &cfg,
    })
    if err != nil {
        return nil, err
    }
    if err := dec.Decode(raw); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }
    if err := cfg.Validate(); err != nil {
        return nil, err
    }
    return &cfg, nil
}

// Validate checks values that the decoder cannot.
func (c *Config) Validate() error {
    if _, err := domain.ParseMark(c.HumanMark); err != nil {
        return fmt.Errorf("human_mark: %w", err)
    }
    if c.AIDelay < 0 {
        return fmt.Errorf("ai_delay must not be negative, got %s", c.AIDelay)
    }
    switch c.LogFormat {
    case "json", "console":
    default:
        return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
    }
    return nil
}

// Human returns the human's mark.
func (c *Config) Human() domain.Cell {
    m, err := domain.ParseMark(c.HumanMark)
    if err != nil {
        return domain.X
    }
    return m
}
