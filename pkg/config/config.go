// Package config provides YAML-based configuration loading for tierbus.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName optional logical name of the process using the transport
    AppName string `mapstructure:"app_name"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Transport holds ring buffer transport construction parameters
    Transport TransportConfig `mapstructure:"transport"`
}

// TransportConfig selects the backend and sizes the tier rings.
type TransportConfig struct {
    // Backend: "plain" or "numa"
    Backend string `mapstructure:"backend"`
    // NUMANode is the memory node for the numa backend
    NUMANode uint32 `mapstructure:"numa_node"`
    // CapacityPerTier is bytes per priority ring, identical across tiers
    CapacityPerTier int `mapstructure:"capacity_per_tier"`
    // MaxPayloadSize bounds a single message payload
    MaxPayloadSize int `mapstructure:"max_payload_size"`
    // PollIntervalMS is the non-blocking reader's re-check period
    PollIntervalMS int `mapstructure:"poll_interval_ms"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Output: stdout, stderr, or a file path
    Output string `mapstructure:"output"`

    // Rotation controls file rotation when writing to a file
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool `mapstructure:"enable"`
    MaxSizeMB  int  `mapstructure:"max_size_mb"`
    MaxBackups int  `mapstructure:"max_backups"`
    MaxAgeDays int  `mapstructure:"max_age_days"`
    Compress   bool `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "tierbus",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Output:      "stdout",
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Transport: TransportConfig{
            Backend:         "plain",
            NUMANode:        0,
            CapacityPerTier: 1 << 20,
            MaxPayloadSize:  64 << 10,
            PollIntervalMS:  1,
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix TIERBUS and `.`/`-` are replaced with `_`.
// Example: TIERBUS_TRANSPORT_BACKEND=numa
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("TIERBUS")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.output", cfg.Log.Output)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("transport.backend", cfg.Transport.Backend)
    v.SetDefault("transport.numa_node", cfg.Transport.NUMANode)
    v.SetDefault("transport.capacity_per_tier", cfg.Transport.CapacityPerTier)
    v.SetDefault("transport.max_payload_size", cfg.Transport.MaxPayloadSize)
    v.SetDefault("transport.poll_interval_ms", cfg.Transport.PollIntervalMS)

    // Choose config file
    if path == "" {
        if envPath := os.Getenv("TIERBUS_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        // Search common locations with base name `tierbus`
        v.SetConfigName("tierbus")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".tierbus"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if !errors.As(err, &notFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if c.Log.Output == "" {
        c.Log.Output = "stdout"
    }

    c.Transport.Backend = strings.ToLower(strings.TrimSpace(c.Transport.Backend))
    switch c.Transport.Backend {
    case "", "plain":
        c.Transport.Backend = "plain"
    case "numa", "numa-local":
        c.Transport.Backend = "numa"
    default:
        return fmt.Errorf("invalid transport.backend: %q", c.Transport.Backend)
    }
    if c.Transport.CapacityPerTier <= 0 {
        return fmt.Errorf("invalid transport.capacity_per_tier: %d", c.Transport.CapacityPerTier)
    }
    if c.Transport.MaxPayloadSize <= 0 {
        return fmt.Errorf("invalid transport.max_payload_size: %d", c.Transport.MaxPayloadSize)
    }
    if c.Transport.PollIntervalMS <= 0 {
        c.Transport.PollIntervalMS = 1
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
