package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"dispersion-updates"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"dispersion.db"`

	UpdateInterval  time.Duration `env:"UPDATE_INTERVAL" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	WeatherBaseURL string        `env:"WEATHER_BASE_URL" envDefault:"https://api.open-meteo.com/v1"`
	WeatherTimeout time.Duration `env:"WEATHER_TIMEOUT" envDefault:"5s"`

	ChemicalBaseURL  string        `env:"CHEMICAL_BASE_URL" envDefault:"https://cameochemicals.noaa.gov/api"`
	ChemicalTimeout  time.Duration `env:"CHEMICAL_TIMEOUT" envDefault:"5s"`
	ChemicalCacheTTL time.Duration `env:"CHEMICAL_CACHE_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}
	if cfg.UpdateInterval <= 0 {
		return nil, errors.New("UPDATE_INTERVAL must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.WeatherTimeout <= 0 {
		return nil, errors.New("WEATHER_TIMEOUT must be positive")
	}
	if cfg.ChemicalTimeout <= 0 {
		return nil, errors.New("CHEMICAL_TIMEOUT must be positive")
	}

	return cfg, nil
}
