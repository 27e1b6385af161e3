package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SIMTRADE_PORT or
// SIMTRADE_REDIS_ADDR.
const EnvPrefix = "SIMTRADE"

// Config holds all runtime configuration for the simulator.
type Config struct {
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	InitBalance     float64       `mapstructure:"init_balance"`
	WebhookTimeout  time.Duration `mapstructure:"webhook_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Settle SettleConfig `mapstructure:"settle"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Stream StreamConfig `mapstructure:"stream"`
}

// SettleConfig controls the daily automatic settlement. An empty At turns
// it off.
type SettleConfig struct {
	At            string        `mapstructure:"at"` // HH:MM:SS exchange time
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// RedisConfig controls the Redis bridge.
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	CommandQueue string `mapstructure:"command_queue"`
	QuotePattern string `mapstructure:"quote_pattern"`
	ResultPrefix string `mapstructure:"result_prefix"`
	ReplyQueue   string `mapstructure:"reply_queue"`
}

// StreamConfig controls the WebSocket result stream.
type StreamConfig struct {
	Buffer         int           `mapstructure:"buffer"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

var defaults = map[string]any{
	"port":             8080,
	"log_level":        "info",
	"init_balance":     10_000_000.0,
	"webhook_timeout":  5 * time.Second,
	"read_timeout":     5 * time.Second,
	"write_timeout":    10 * time.Second,
	"idle_timeout":     60 * time.Second,
	"shutdown_timeout": 10 * time.Second,

	"settle.at":             "",
	"settle.check_interval": time.Second,

	"redis.enabled":       false,
	"redis.addr":          "localhost:6379",
	"redis.password":      "",
	"redis.db":            0,
	"redis.command_queue": "simtrade.commands",
	"redis.quote_pattern": "quote.*",
	"redis.result_prefix": "simtrade.result.",
	"redis.reply_queue":   "simtrade.replies",

	"stream.buffer":          256,
	"stream.write_timeout":   10 * time.Second,
	"stream.allowed_origins": []string{},
}

// Load reads configuration from the optional YAML file at path (or
// ./simtrade.yaml when path is empty), applies SIMTRADE_* environment
// overrides and defaults, and validates values. It returns an error for any
// invalid value.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("simtrade")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be in 1-65535", c.Port)
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level: %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if !(c.InitBalance > 0) || math.IsInf(c.InitBalance, 0) {
		return fmt.Errorf("invalid init_balance: %v, must be > 0", c.InitBalance)
	}

	durations := map[string]time.Duration{
		"webhook_timeout":       c.WebhookTimeout,
		"read_timeout":          c.ReadTimeout,
		"write_timeout":         c.WriteTimeout,
		"idle_timeout":          c.IdleTimeout,
		"shutdown_timeout":      c.ShutdownTimeout,
		"settle.check_interval": c.Settle.CheckInterval,
		"stream.write_timeout":  c.Stream.WriteTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("invalid %s: %s, must be > 0", key, d)
		}
	}

	if c.Settle.At != "" {
		if _, err := time.Parse(time.TimeOnly, c.Settle.At); err != nil {
			return fmt.Errorf("invalid settle.at: %q, must be HH:MM:SS", c.Settle.At)
		}
	}
	if c.Stream.Buffer < 1 {
		return fmt.Errorf("invalid stream.buffer: %d, must be >= 1", c.Stream.Buffer)
	}
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return errors.New("invalid redis.addr: required when redis is enabled")
		}
		if c.Redis.CommandQueue == "" || c.Redis.QuotePattern == "" || c.Redis.ResultPrefix == "" {
			return errors.New("invalid redis config: command_queue, quote_pattern and result_prefix are required")
		}
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
