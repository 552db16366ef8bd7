package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargehub/libs/config"
)

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"CHARGEHUB_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"CHARGEHUB_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"CHARGEHUB_REDIS_ADDR"`
		Password string `yaml:"password" env:"CHARGEHUB_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"CHARGEHUB_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"CHARGEHUB_REDIS_TTL"`
	} `yaml:"redis"`
	JWT struct {
		Secret           string `yaml:"secret" env:"CHARGEHUB_JWT_SECRET"`
		ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"CHARGEHUB_JWT_EXPIRES_MINUTES"`
	} `yaml:"jwt"`
	Gemini struct {
		APIKey string `yaml:"apiKey" env:"CHARGEHUB_GEMINI_API_KEY"`
		Model  string `yaml:"model" env:"CHARGEHUB_GEMINI_MODEL"`
	} `yaml:"gemini"`
}

// Load reads configuration using the shared config loader.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400
	cfg.JWT.ExpiresInMinutes = 60

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if cfg.JWT.ExpiresInMinutes <= 0 {
		cfg.JWT.ExpiresInMinutes = 60
	}

	return cfg, nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.JWT.ExpiresInMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}

// ActiveSessionTTL returns the redis cache ttl as duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
