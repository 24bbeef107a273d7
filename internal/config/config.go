package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all console configuration
type Config struct {
	App         AppConfig
	Upstream    UpstreamConfig
	Consul      ConsulConfig
	Redis       RedisConfig
	Idempotency IdempotencyConfig
	RabbitMQ    RabbitMQConfig
	Database    DatabaseConfig
	Audit       AuditConfig
	Log         LogConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

// UpstreamConfig holds the fallback base URLs of the remote services. They
// are used as-is when Consul is disabled or has no healthy instance.
type UpstreamConfig struct {
	CustomerURL string
	ProductURL  string
	BillURL     string
	Timeout     time.Duration
	// RateLimit is requests per second per upstream; 0 disables limiting
	RateLimit float64
	RateBurst int
}

type ConsulConfig struct {
	Enabled         bool
	Host            string
	Port            int
	RefreshInterval time.Duration
	CustomerService string
	ProductService  string
	BillService     string
	// ServiceID registers this console instance; empty skips registration
	ServiceID string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
}

// DatabaseConfig is used by the audit service only
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AuditConfig is read by cmd/audit-service
type AuditConfig struct {
	Port string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load reads configuration with this priority (highest first):
// 1. Environment variables with CONSOLE_ prefix (e.g. CONSOLE_UPSTREAM_BILL_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Upstream: UpstreamConfig{
			CustomerURL: v.GetString("upstream.customer_url"),
			ProductURL:  v.GetString("upstream.product_url"),
			BillURL:     v.GetString("upstream.bill_url"),
			Timeout:     v.GetDuration("upstream.timeout"),
			RateLimit:   v.GetFloat64("upstream.rate_limit"),
			RateBurst:   v.GetInt("upstream.rate_burst"),
		},
		Consul: ConsulConfig{
			Enabled:         v.GetBool("consul.enabled"),
			Host:            v.GetString("consul.host"),
			Port:            v.GetInt("consul.port"),
			RefreshInterval: v.GetDuration("consul.refresh_interval"),
			CustomerService: v.GetString("consul.customer_service"),
			ProductService:  v.GetString("consul.product_service"),
			BillService:     v.GetString("consul.bill_service"),
			ServiceID:       v.GetString("consul.service_id"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Idempotency: IdempotencyConfig{
			TTL: v.GetDuration("idempotency.ttl"),
		},
		RabbitMQ: RabbitMQConfig{
			Enabled:  v.GetBool("rabbitmq.enabled"),
			Host:     v.GetString("rabbitmq.host"),
			Port:     v.GetInt("rabbitmq.port"),
			User:     v.GetString("rabbitmq.user"),
			Password: v.GetString("rabbitmq.password"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Audit: AuditConfig{
			Port: v.GetString("audit.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "billing-console"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Upstream.CustomerURL == "" {
		cfg.Upstream.CustomerURL = "http://customer-service:8081"
	}
	if cfg.Upstream.ProductURL == "" {
		cfg.Upstream.ProductURL = "http://inventory-service:8082"
	}
	if cfg.Upstream.BillURL == "" {
		cfg.Upstream.BillURL = "http://billing-service:8083"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Upstream.RateBurst == 0 {
		cfg.Upstream.RateBurst = 10
	}
	if cfg.Consul.Host == "" {
		cfg.Consul.Host = "localhost"
	}
	if cfg.Consul.Port == 0 {
		cfg.Consul.Port = 8500
	}
	if cfg.Consul.RefreshInterval == 0 {
		cfg.Consul.RefreshInterval = 10 * time.Second
	}
	if cfg.Consul.CustomerService == "" {
		cfg.Consul.CustomerService = "customer-service"
	}
	if cfg.Consul.ProductService == "" {
		cfg.Consul.ProductService = "inventory-service"
	}
	if cfg.Consul.BillService == "" {
		cfg.Consul.BillService = "billing-service"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.User == "" {
		cfg.RabbitMQ.User = "guest"
	}
	if cfg.RabbitMQ.Password == "" {
		cfg.RabbitMQ.Password = "guest"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "console"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "console"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Audit.Port == "" {
		cfg.Audit.Port = "8085"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.IsProduction() {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
}

func (c *Config) validate() error {
	if c.App.Port == "" {
		return errors.New("app.port is required")
	}
	if c.Upstream.Timeout < 0 {
		return errors.New("upstream.timeout must be positive")
	}
	if c.Upstream.RateLimit < 0 {
		return errors.New("upstream.rate_limit must not be negative")
	}
	for key, raw := range map[string]string{
		"upstream.customer_url": c.Upstream.CustomerURL,
		"upstream.product_url":  c.Upstream.ProductURL,
		"upstream.bill_url":     c.Upstream.BillURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// RedisAddr returns host:port for go-redis
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
