package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL" envDefault:""`
	JWTSecret              string `env:"JWT_SECRET,required"`
	AppEnv                 string `env:"APP_ENV" envDefault:"development"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
	DispatchIntervalSecs   int    `env:"DISPATCH_INTERVAL_SECONDS" envDefault:"60"`
	DispatchBatchSize      int    `env:"DISPATCH_BATCH_SIZE" envDefault:"50"`
	PublicRateLimitPerMin  int    `env:"PUBLIC_RATE_LIMIT_PER_MIN" envDefault:"30"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalSecs) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Validate() error {
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.DispatchIntervalSecs < 1 {
		return fmt.Errorf("DISPATCH_INTERVAL_SECONDS must be positive")
	}
	if c.DispatchBatchSize < 1 {
		return fmt.Errorf("DISPATCH_BATCH_SIZE must be positive")
	}
	return nil
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
