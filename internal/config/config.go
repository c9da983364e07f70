package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Validator ValidatorConfig `yaml:"validator"`
	Cache     CacheConfig     `yaml:"cache"`
	SES       SESConfig       `yaml:"ses"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// ValidatorConfig holds validation pipeline settings
type ValidatorConfig struct {
	Concurrency         int    `yaml:"concurrency"`
	HELODomain          string `yaml:"helo_domain"`
	MailFrom            string `yaml:"mail_from"`
	ProbeTimeoutSeconds int    `yaml:"probe_timeout_seconds"`
	DNSTimeoutSeconds   int    `yaml:"dns_timeout_seconds"`
	CatchAllDetection   bool   `yaml:"catch_all_detection"`
	MaxBatchSize        int    `yaml:"max_batch_size"`
}

// ProbeTimeout returns the SMTP probe timeout as a duration
func (c ValidatorConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// DNSTimeout returns the DNS lookup timeout as a duration
func (c ValidatorConfig) DNSTimeout() time.Duration {
	return time.Duration(c.DNSTimeoutSeconds) * time.Second
}

// CacheConfig holds DNS result cache settings
type CacheConfig struct {
	TTLHours   int `yaml:"ttl_hours"`
	MaxEntries int `yaml:"max_entries"`
}

// TTL returns the cache entry lifetime as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Enabled   bool   `yaml:"enabled"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Validator.Concurrency == 0 {
		cfg.Validator.Concurrency = 2
	}
	if cfg.Validator.HELODomain == "" {
		cfg.Validator.HELODomain = "validator.local"
	}
	if cfg.Validator.MailFrom == "" {
		cfg.Validator.MailFrom = "validator@validator.local"
	}
	if cfg.Validator.ProbeTimeoutSeconds == 0 {
		cfg.Validator.ProbeTimeoutSeconds = 10
	}
	if cfg.Validator.DNSTimeoutSeconds == 0 {
		cfg.Validator.DNSTimeoutSeconds = 5
	}
	if cfg.Validator.MaxBatchSize == 0 {
		cfg.Validator.MaxBatchSize = 1000
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1000
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.SES.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.SES.Region = region
	}
	if v := os.Getenv("VALIDATOR_HELO_DOMAIN"); v != "" {
		cfg.Validator.HELODomain = v
	}
	if v := os.Getenv("VALIDATOR_MAIL_FROM"); v != "" {
		cfg.Validator.MailFrom = v
	}
	if v := os.Getenv("VALIDATOR_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Validator.Concurrency = n
		}
	}

	return cfg, nil
}
