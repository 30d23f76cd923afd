// Package config loads the vendor portal configuration from an optional YAML
// file, VENDOR_PORTAL_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VENDOR_PORTAL_SERVER_ADDR.
const EnvPrefix = "VENDOR_PORTAL"

// Config is the full portal configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Display DisplayConfig `mapstructure:"display"`
	Charts  ChartsConfig  `mapstructure:"charts"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Catalog string        `mapstructure:"catalog"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

// BackendConfig configures the data fetch gateway. An empty BaseURL selects
// the in-process demo backend.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// SessionConfig configures the session gate and its store.
type SessionConfig struct {
	Store      string        `mapstructure:"store" validate:"oneof=memory redis"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	MemorySize int           `mapstructure:"memory_size" validate:"gte=0"`
	CookieName string        `mapstructure:"cookie_name" validate:"required"`
	DemoLogin  bool          `mapstructure:"demo_login"`
}

// RedisConfig configures the shared session store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix"`
}

// DisplayConfig configures formatting and table paging.
type DisplayConfig struct {
	Locale         string        `mapstructure:"locale" validate:"required"`
	CurrencyCode   string        `mapstructure:"currency_code" validate:"required,len=3"`
	CurrencySymbol string        `mapstructure:"currency_symbol" validate:"required"`
	PageSize       int           `mapstructure:"page_size" validate:"gt=0"`
	ToastTTL       time.Duration `mapstructure:"toast_ttl" validate:"gt=0"`
}

// ChartsConfig configures the overview charts.
type ChartsConfig struct {
	Theme      string        `mapstructure:"theme"`
	AssetsHost string        `mapstructure:"assets_host" validate:"omitempty,url"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

// LogConfig configures console and Seq logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	SeqURL string `mapstructure:"seq_url" validate:"omitempty,url"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

var defaults = map[string]any{
	"server.addr":             ":8080",
	"server.read_timeout":     "15s",
	"server.write_timeout":    "30s",
	"server.cookie_secure":    false,
	"backend.base_url":        "",
	"backend.api_key":         "",
	"backend.timeout":         "15s",
	"session.store":           "memory",
	"session.ttl":             "8h",
	"session.memory_size":     0,
	"session.cookie_name":     "vendor_portal_session",
	"session.demo_login":      false,
	"redis.addr":              "",
	"redis.username":          "",
	"redis.password":          "",
	"redis.db":                0,
	"redis.prefix":            "",
	"display.locale":          "en-IN",
	"display.currency_code":   "INR",
	"display.currency_symbol": "₹",
	"display.page_size":       10,
	"display.toast_ttl":       "30s",
	"charts.theme":            "",
	"charts.assets_host":      "",
	"charts.cache_ttl":        "1m",
	"log.level":               "info",
	"log.format":              "text",
	"log.seq_url":             "",
	"metrics.enabled":         true,
	"metrics.path":            "/metrics",
	"catalog":                 "",
}

// Load reads path when given, applies environment overrides and validates the
// result. An empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	if c.Session.Store == "redis" && c.Redis.Addr == "" {
		return errors.New("config: invalid: redis.addr is required when session.store is redis")
	}
	return nil
}

// DemoBackend reports whether the in-process demo backend should be used.
func (c Config) DemoBackend() bool {
	return c.Backend.BaseURL == ""
}
