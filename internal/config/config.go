package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	AccessSecret string
}

type PaymentsConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

type PricingConfig struct {
	BasePriceCents int64
	Currency       string
}

type PushConfig struct {
	Endpoint string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Payments    PaymentsConfig
	Pricing     PricingConfig
	Push        PushConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Payments: PaymentsConfig{
			BaseURL:       v.GetString("PAYMENTS_BASE_URL"),
			APIKey:        v.GetString("PAYMENTS_API_KEY"),
			WebhookSecret: v.GetString("PAYMENTS_WEBHOOK_SECRET"),
		},
		Pricing: PricingConfig{
			BasePriceCents: v.GetInt64("PRICING_BASE_PRICE_CENTS"),
			Currency:       v.GetString("PRICING_CURRENCY"),
		},
		Push: PushConfig{
			Endpoint: v.GetString("PUSH_ENDPOINT"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Pricing.BasePriceCents <= 0 {
		cfg.Pricing.BasePriceCents = 450
	}
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "EUR"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Payments.BaseURL == "" {
		return fmt.Errorf("PAYMENTS_BASE_URL is required")
	}
	if cfg.Payments.APIKey == "" {
		return fmt.Errorf("PAYMENTS_API_KEY is required")
	}
	if cfg.Payments.WebhookSecret == "" {
		return fmt.Errorf("PAYMENTS_WEBHOOK_SECRET is required")
	}
	return nil
}
