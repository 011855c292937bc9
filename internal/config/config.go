package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// DefaultSensorAPIKey is the fallback shared secret when SENSOR_API_KEY
// is unset. It matches what the device firmware ships with, but it is
// not a secret; Load warns loudly when it is in effect.
const DefaultSensorAPIKey = "changeme123"

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	Host         string `env:"HOST" default:"0.0.0.0"`
	Port         string `env:"PORT" default:"3000"`
	SensorAPIKey string `env:"SENSOR_API_KEY" default:"changeme123"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"text"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"1000"`
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
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.MaxWebSocketConnections <= 0 {
		return fmt.Errorf("MAX_WEBSOCKET_CONNECTIONS must be positive, got %d", cfg.MaxWebSocketConnections)
	}
	return nil
}

// UsingDefaultSensorKey reports whether the insecure fallback shared
// secret is in effect.
func (c *Config) UsingDefaultSensorKey() bool {
	return c.SensorAPIKey == DefaultSensorAPIKey
}
