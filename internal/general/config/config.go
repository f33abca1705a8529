package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"database"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Service struct {
		Port          int `yaml:"port"`
		MaxConcurrent int `yaml:"max_concurrent"`
	} `yaml:"service"`
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	} `yaml:"jwt"`
}

// LoadFromFile loads config from a YAML file to a Config struct, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Redis
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	// Service
	if cfg.Service.Port == 0 {
		cfg.Service.Port = 3000
	}
	if cfg.Service.MaxConcurrent == 0 {
		cfg.Service.MaxConcurrent = 100
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database is required")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// Redis
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		problems = append(problems, "redis.port must be in 1..65535")
	}

	// Service
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		problems = append(problems, "service.port must be in 1..65535")
	}
	if c.Service.MaxConcurrent < 1 {
		problems = append(problems, "service.max_concurrent must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// RedisAddr returns the host:port address for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
