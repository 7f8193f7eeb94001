package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth. Empty disables bearer auth on the API.
	APIKey string `yaml:"api_key"`

	// Storage
	StorageBackend string `yaml:"storage_backend"`
	DataDir        string `yaml:"data_dir"`
	DatabaseURL    string `yaml:"database_url"`
	KVURL          string `yaml:"kv_url"`
	KVAPIKey       string `yaml:"kv_api_key"`

	// Retention
	RetentionTTL      time.Duration `yaml:"retention_ttl"`
	RetentionSchedule string        `yaml:"retention_schedule"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`
	// Attempts per batch job. Storage failures are retried only when > 1.
	BatchMaxAttempts int `yaml:"batch_max_attempts"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	MaxBatchFiles  int   `yaml:"max_batch_files"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Detection
	PhoneRegion string `yaml:"phone_region"`

	// Rate limiting, requests per minute per client. 0 disables.
	RateLimitRPM int `yaml:"rate_limit_rpm"`

	// Observability
	SentryDSN         string `yaml:"sentry_dsn"`
	SentryEnvironment string `yaml:"sentry_environment"`
	MetricsNamespace  string `yaml:"metrics_namespace"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

const maxBatchAttempts = 5

func defaults() Config {
	return Config{
		Port:                 "8090",
		StorageBackend:       "fs",
		DataDir:              "./data",
		KVURL:                "http://localhost:8080",
		RetentionTTL:         24 * time.Hour,
		RetentionSchedule:    "@hourly",
		WorkerCount:          4,
		MaxQueueSize:         100,
		BatchMaxAttempts:     1,
		MaxUploadBytes:       52428800, // 50MB
		MaxBatchFiles:        20,
		JobTTL:               1 * time.Hour,
		PhoneRegion:          "US",
		RateLimitRPM:         120,
		SentryEnvironment:    "production",
		MetricsNamespace:     "docredact",
		PDFFallbackPdftotext: true,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE, then environment variables. A .env file in the working
// directory is loaded first if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCREDACT_API_KEY", cfg.APIKey)

	cfg.StorageBackend = strings.ToLower(envOr("STORAGE_BACKEND", cfg.StorageBackend))
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.KVURL = envOr("KV_URL", cfg.KVURL)
	cfg.KVAPIKey = envOr("KV_API_KEY", cfg.KVAPIKey)

	cfg.RetentionTTL = envDuration("RETENTION_TTL", cfg.RetentionTTL)
	cfg.RetentionSchedule = envOr("RETENTION_SCHEDULE", cfg.RetentionSchedule)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.BatchMaxAttempts = envInt("BATCH_MAX_ATTEMPTS", cfg.BatchMaxAttempts)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxBatchFiles = envInt("MAX_BATCH_FILES", cfg.MaxBatchFiles)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.PhoneRegion = strings.ToUpper(envOr("PHONE_REGION", cfg.PhoneRegion))
	cfg.RateLimitRPM = envInt("RATE_LIMIT_RPM", cfg.RateLimitRPM)

	cfg.SentryDSN = envOr("SENTRY_DSN", cfg.SentryDSN)
	cfg.SentryEnvironment = envOr("SENTRY_ENVIRONMENT", cfg.SentryEnvironment)
	cfg.MetricsNamespace = envOr("METRICS_NAMESPACE", cfg.MetricsNamespace)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) clamp() {
	d := defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.BatchMaxAttempts <= 0 {
		c.BatchMaxAttempts = d.BatchMaxAttempts
	}
	if c.BatchMaxAttempts > maxBatchAttempts {
		c.BatchMaxAttempts = maxBatchAttempts
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.MaxBatchFiles <= 0 {
		c.MaxBatchFiles = d.MaxBatchFiles
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.RetentionTTL <= 0 {
		c.RetentionTTL = d.RetentionTTL
	}
	if c.RateLimitRPM < 0 {
		c.RateLimitRPM = 0
	}
	if c.PhoneRegion == "" {
		c.PhoneRegion = d.PhoneRegion
	}
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case "fs":
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the fs storage backend")
		}
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	case "kv":
		if c.KVURL == "" {
			return fmt.Errorf("KV_URL is required for the kv storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if len(c.PhoneRegion) != 2 {
		return fmt.Errorf("PHONE_REGION must be a two-letter region code, got %q", c.PhoneRegion)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
