package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	OracleURL     string        `env:"ORACLE_URL" default:"http://localhost:8001/predict"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" default:"3s"`

	DataFile    string `env:"DATA_FILE" default:"./data/user_data.json"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	AssetsDir   string `env:"ASSETS_DIR" default:"./assets"`

	RateLimitCooldown time.Duration `env:"RATE_LIMIT_COOLDOWN" default:"10s"`
	UpdateTimeout     time.Duration `env:"UPDATE_TIMEOUT" default:"30s"`

	HTTPPort      string  `env:"HTTP_PORT" default:"8080"`
	HTTPRateLimit float64 `env:"HTTP_RATE_LIMIT" default:"10"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"TELEGRAM_TOKEN": cfg.TelegramToken,
		"ORACLE_URL":     cfg.OracleURL,
		"HTTP_PORT":      cfg.HTTPPort,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if u, err := url.Parse(cfg.OracleURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ORACLE_URL must be an absolute URL, got %q", cfg.OracleURL)
	}
	if cfg.OracleTimeout <= 0 {
		return errors.New("ORACLE_TIMEOUT must be positive")
	}
	if cfg.RateLimitCooldown < 0 {
		return errors.New("RATE_LIMIT_COOLDOWN must not be negative")
	}
	if cfg.UpdateTimeout < cfg.OracleTimeout {
		return fmt.Errorf("UPDATE_TIMEOUT (%s) must not be shorter than ORACLE_TIMEOUT (%s)", cfg.UpdateTimeout, cfg.OracleTimeout)
	}
	if cfg.HTTPRateLimit <= 0 {
		return errors.New("HTTP_RATE_LIMIT must be positive")
	}
	if cfg.DatabaseURL == "" && cfg.DataFile == "" {
		return errors.New("either DATABASE_URL or DATA_FILE must be set")
	}

	return nil
}
