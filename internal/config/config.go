// Package config loads runtime configuration from the environment, with an
// optional YAML file overlay for deployments that prefer files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the admin backend.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Redis     RedisConfig     `yaml:"redis"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reporting ReportingConfig `yaml:"reporting"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADMIN_SERVER_ADDR,default=:5001"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"ADMIN_SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"ADMIN_SERVER_WRITE_TIMEOUT,default=15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ADMIN_SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

type DatabaseConfig struct {
	// DSN empty selects the in-memory store.
	DSN          string `yaml:"dsn" env:"ADMIN_DATABASE_DSN,default="`
	MaxOpenConns int    `yaml:"max_open_conns" env:"ADMIN_DATABASE_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `yaml:"max_idle_conns" env:"ADMIN_DATABASE_MAX_IDLE_CONNS,default=5"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"ADMIN_AUTH_JWT_SECRET,default=dev-secret-change-me"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"ADMIN_AUTH_TOKEN_TTL,default=8h"`
}

type UpstreamConfig struct {
	// BaseURL of the main trading backend the admin API forwards to.
	BaseURL string        `yaml:"base_url" env:"ADMIN_UPSTREAM_BASE_URL,default=http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" env:"ADMIN_UPSTREAM_TIMEOUT,default=10s"`
	// APIKey, when set, is sent as a bearer token on backend calls.
	APIKey string `yaml:"api_key" env:"ADMIN_UPSTREAM_API_KEY,default="`
}

type RedisConfig struct {
	// Addr empty disables the deposit-address cache.
	Addr     string        `yaml:"addr" env:"ADMIN_REDIS_ADDR,default="`
	Password string        `yaml:"password" env:"ADMIN_REDIS_PASSWORD,default="`
	DB       int           `yaml:"db" env:"ADMIN_REDIS_DB,default=0"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"ADMIN_REDIS_CACHE_TTL,default=30s"`
}

type CORSConfig struct {
	// Origins is a semicolon-separated allowlist.
	Origins string `yaml:"origins" env:"ADMIN_CORS_ORIGINS,default=http://localhost:3000;http://localhost:5173"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"ADMIN_RATE_LIMIT_RPS,default=20"`
	Burst int     `yaml:"burst" env:"ADMIN_RATE_LIMIT_BURST,default=40"`
}

type ReportingConfig struct {
	// Schedule is a cron spec for the pending-request gauge refresh.
	Schedule string `yaml:"schedule" env:"ADMIN_REPORTING_SCHEDULE,default=@every 1m"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"ADMIN_LOG_LEVEL,default=info"`
}

// Load builds the configuration: .env file when present, then environment
// variables, then the YAML file named by ADMIN_CONFIG_FILE overriding both.
func Load() (*Config, error) {
	// missing .env is fine, env vars may come from the deployment
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	if path := os.Getenv("ADMIN_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}

// AllowedOrigins splits the CORS allowlist.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORS.Origins, ";") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
