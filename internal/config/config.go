package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageBackendLocal = "local"
	StorageBackendAzure = "azure"
)

type Config struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	AnalysisTimeout time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"60s"`
	MaxUploadSize   int64         `env:"MAX_UPLOAD_SIZE" envDefault:"16777216"` // 16MB
	MaxPixels       int64         `env:"MAX_PIXELS" envDefault:"50000000"`
	MaxWorkers      int           `env:"MAX_WORKERS" envDefault:"0"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	DefaultLocale   string        `env:"DEFAULT_LOCALE" envDefault:"en"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	Storage Storage
}

type Storage struct {
	Backend      string `env:"STORAGE_BACKEND" envDefault:"local"`
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"static/uploads"`
	ProcessedDir string `env:"PROCESSED_DIR" envDefault:"static/processed"`
	Azure        Azure
}

type Azure struct {
	AccountName string `env:"AZURE_ACCOUNT_NAME"`
	AccountKey  string `env:"AZURE_ACCOUNT_KEY"`
	Container   string `env:"AZURE_CONTAINER" envDefault:"photos"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads an optional .env file, parses the environment and
// validates the result.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.MaxPixels <= 0 {
		return fmt.Errorf("MAX_PIXELS must be > 0 (got %d)", c.MaxPixels)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			c.RequestTimeout, c.AnalysisTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be >= 0 (got %s)", c.CacheTTL)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("MAX_WORKERS must be >= 0 (got %d)", c.MaxWorkers)
	}

	switch c.Storage.Backend {
	case StorageBackendLocal:
		if strings.TrimSpace(c.Storage.UploadDir) == "" {
			return fmt.Errorf("UPLOAD_DIR is required for the local backend")
		}
	case StorageBackendAzure:
		if c.Storage.Azure.AccountName == "" || c.Storage.Azure.AccountKey == "" {
			return fmt.Errorf("AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY are required for the azure backend")
		}
		if c.Storage.Azure.Container == "" {
			return fmt.Errorf("AZURE_CONTAINER is required for the azure backend")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: %q", c.Storage.Backend)
	}
	return nil
}
