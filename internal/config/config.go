package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the contact service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port              int    `mapstructure:"port"`
	FrontendURL       string `mapstructure:"frontend_url"`
	StaticDir         string `mapstructure:"static_dir"`
	TrustedProxyCount int    `mapstructure:"trusted_proxy_count"`
}

type StoreConfig struct {
	DataFile string `mapstructure:"data_file"`
}

// AdminConfig is the single operator identity allowed to read messages.
type AdminConfig struct {
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

type RateLimitConfig struct {
	WindowMs int `mapstructure:"window_ms"`
	Max      int `mapstructure:"max"`
	// PruneInterval is how often elapsed windows are dropped from memory.
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

// Window returns WindowMs as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

// RedisConfig enables admission statistics when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.frontend_url":        "FRONTEND_URL",
	"server.static_dir":          "STATIC_DIR",
	"server.trusted_proxy_count": "TRUSTED_PROXY_COUNT",
	"store.data_file":            "DATA_FILE",
	"admin.user":                 "ADMIN_USER",
	"admin.pass":                 "ADMIN_PASS",
	"rate_limit.window_ms":       "RATE_LIMIT_WINDOW_MS",
	"rate_limit.max":             "RATE_LIMIT_MAX",
	"rate_limit.prune_interval":  "RATE_LIMIT_PRUNE_INTERVAL",
	"redis.addr":                 "REDIS_ADDR",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"log.level":                  "LOG_LEVEL",
	"log.pretty":                 "LOG_PRETTY",
}

// Load reads the given .env files (missing files are ignored) and then the
// process environment. Variables already set in the environment win over
// .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.trusted_proxy_count", 0)
	v.SetDefault("store.data_file", "data/messages.json")
	v.SetDefault("admin.user", "")
	v.SetDefault("admin.pass", "")
	v.SetDefault("rate_limit.window_ms", 60000)
	v.SetDefault("rate_limit.max", 6)
	v.SetDefault("rate_limit.prune_interval", "5m")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT out of range: %d", c.Server.Port))
	}
	if c.Server.TrustedProxyCount < 0 {
		errs = append(errs, fmt.Errorf("config: TRUSTED_PROXY_COUNT must not be negative"))
	}
	if c.Store.DataFile == "" {
		errs = append(errs, errors.New("config: DATA_FILE is required"))
	}
	if c.RateLimit.WindowMs <= 0 {
		errs = append(errs, fmt.Errorf("config: RATE_LIMIT_WINDOW_MS must be positive: %d", c.RateLimit.WindowMs))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, fmt.Errorf("config: RATE_LIMIT_MAX must be positive: %d", c.RateLimit.Max))
	}
	return errors.Join(errs...)
}

// AdminConfigured reports whether both admin credentials are set.
func (c *Config) AdminConfigured() bool {
	return c.Admin.User != "" && c.Admin.Pass != ""
}
