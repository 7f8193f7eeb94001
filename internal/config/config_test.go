package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate unsets every variable Load reads and runs from an empty
// directory so a developer's .env does not leak in. t.Setenv restores the
// previous values.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "DOCREDACT_API_KEY", "STORAGE_BACKEND", "DATA_DIR",
		"DATABASE_URL", "KV_URL", "KV_API_KEY", "RETENTION_TTL", "RETENTION_SCHEDULE",
		"WORKER_COUNT", "MAX_QUEUE_SIZE", "BATCH_MAX_ATTEMPTS", "MAX_UPLOAD_BYTES", "MAX_BATCH_FILES", "JOB_TTL",
		"PHONE_REGION", "RATE_LIMIT_RPM", "SENTRY_DSN", "SENTRY_ENVIRONMENT",
		"METRICS_NAMESPACE", "PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.StorageBackend != "fs" {
		t.Errorf("expected fs backend, got %q", cfg.StorageBackend)
	}
	if cfg.PhoneRegion != "US" {
		t.Errorf("expected US region, got %q", cfg.PhoneRegion)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job ttl, got %v", cfg.JobTTL)
	}
	if cfg.BatchMaxAttempts != 1 {
		t.Errorf("expected a single batch attempt, got %d", cfg.BatchMaxAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_EnvOverridesAndClamps(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_BACKEND", "MEMORY")
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("BATCH_MAX_ATTEMPTS", "50")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("PHONE_REGION", "gb")
	t.Setenv("RATE_LIMIT_RPM", "-1")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.StorageBackend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.StorageBackend)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.BatchMaxAttempts != 5 {
		t.Errorf("expected clamped batch attempts 5, got %d", cfg.BatchMaxAttempts)
	}
	if cfg.JobTTL != 15*time.Minute {
		t.Errorf("expected 15m job ttl, got %v", cfg.JobTTL)
	}
	if cfg.PhoneRegion != "GB" {
		t.Errorf("expected GB, got %q", cfg.PhoneRegion)
	}
	if cfg.RateLimitRPM != 0 {
		t.Errorf("expected rate limit clamped to 0, got %d", cfg.RateLimitRPM)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestLoad_YAMLFileUnderEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "docredact.yaml")
	yml := "port: \"7000\"\nstorage_backend: postgres\ndatabase_url: postgres://localhost/redact\nretention_ttl: 2h\nworker_count: 8\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WORKER_COUNT", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("expected port from file, got %q", cfg.Port)
	}
	if cfg.StorageBackend != "postgres" || cfg.DatabaseURL != "postgres://localhost/redact" {
		t.Errorf("unexpected storage settings %q %q", cfg.StorageBackend, cfg.DatabaseURL)
	}
	if cfg.RetentionTTL != 2*time.Hour {
		t.Errorf("expected 2h retention, got %v", cfg.RetentionTTL)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected env to win over file, got %d", cfg.WorkerCount)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config file")
	}

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(".env", []byte("PORT=7777\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("expected port from .env, got %q", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory", func(c *Config) { c.StorageBackend = "memory" }, false},
		{"postgres without url", func(c *Config) { c.StorageBackend = "postgres" }, true},
		{"postgres with url", func(c *Config) { c.StorageBackend = "postgres"; c.DatabaseURL = "postgres://x" }, false},
		{"kv without url", func(c *Config) { c.StorageBackend = "kv"; c.KVURL = "" }, true},
		{"fs without dir", func(c *Config) { c.DataDir = "" }, true},
		{"unknown backend", func(c *Config) { c.StorageBackend = "s3" }, true},
		{"bad region", func(c *Config) { c.PhoneRegion = "USA" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
