package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	App     AppConfig     `yaml:"app"`
	Worker  WorkerConfig  `yaml:"worker"`
	Scraper ScraperConfig `yaml:"scraper"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string          `yaml:"level"`
	Format       string          `yaml:"format"`
	Output       string          `yaml:"output"`
	EnableCaller bool            `yaml:"enable_caller"`
	Stream       LogStreamConfig `yaml:"stream"`
}

// LogStreamConfig holds Redis log stream shipping configuration
type LogStreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
	MaxLen  int64  `yaml:"max_len"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// QueuePair identifies a named queue for a (scraper, operation) pair.
// An empty pair stands for the default queue.
type QueuePair struct {
	Scraper   string `yaml:"scraper"`
	Operation string `yaml:"operation"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	IdentityFile     string        `yaml:"identity_file"`
	Queues           []QueuePair   `yaml:"queues"`
	ClaimTimeout     time.Duration `yaml:"claim_timeout"`
	ForbiddenBackoff time.Duration `yaml:"forbidden_backoff"`
	ErrorBackoff     time.Duration `yaml:"error_backoff"`
}

// ScraperConfig holds browser-automation sidecar configuration
type ScraperConfig struct {
	GISEndpoint    string        `yaml:"gis_endpoint"`
	YandexEndpoint string        `yaml:"yandex_endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the fields the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	return c.validateRedis()
}

// ValidateWorkerConfig checks the fields the worker service depends on
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateRedis(); err != nil {
		return err
	}

	if c.Worker.IdentityFile == "" {
		return fmt.Errorf("worker identity_file is required")
	}

	if c.Worker.ClaimTimeout < 0 {
		return fmt.Errorf("worker claim_timeout must not be negative")
	}

	if c.Worker.ForbiddenBackoff <= 0 {
		return fmt.Errorf("worker forbidden_backoff must be greater than 0")
	}

	if c.Worker.ErrorBackoff <= 0 {
		return fmt.Errorf("worker error_backoff must be greater than 0")
	}

	for _, q := range c.Worker.Queues {
		if (q.Scraper == "") != (q.Operation == "") {
			return fmt.Errorf("worker queue pair must set both scraper and operation (got %q/%q)", q.Scraper, q.Operation)
		}
	}

	return nil
}

func (c *Config) validateRedis() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}

	return nil
}
