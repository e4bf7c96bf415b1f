package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Site.BaseURL != "https://www.backstage.com" {
		t.Errorf("unexpected base URL: %s", cfg.Site.BaseURL)
	}
	if cfg.Site.ListingPath != "/talent/" {
		t.Errorf("unexpected listing path: %s", cfg.Site.ListingPath)
	}
	if cfg.Scrape.RequestDelay != 2*time.Second {
		t.Errorf("unexpected request delay: %s", cfg.Scrape.RequestDelay)
	}
	if cfg.Scrape.ProfileWorkers != 3 || cfg.Scrape.ImageWorkers != 5 {
		t.Errorf("unexpected worker counts: %d/%d", cfg.Scrape.ProfileWorkers, cfg.Scrape.ImageWorkers)
	}
	if cfg.Image.MinWidth != 100 || cfg.Image.MinHeight != 100 || cfg.Image.MinFileSize != 1024 {
		t.Error("unexpected image thresholds")
	}
	if cfg.Output.BaseDirectory != "data/actors" {
		t.Errorf("unexpected output directory: %s", cfg.Output.BaseDirectory)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SCRAPER_BASE_URL", "https://staging.backstage.com")
	t.Setenv("SCRAPER_REQUEST_DELAY", "500ms")
	t.Setenv("SCRAPER_PROFILE_WORKERS", "2")
	t.Setenv("SCRAPER_IMAGE_WORKERS", "7")
	t.Setenv("SCRAPER_MAX_RETRIES", "1")
	t.Setenv("SCRAPER_OUTPUT_DIR", "/tmp/actors")
	t.Setenv("SCRAPER_LOG_LEVEL", "debug")
	t.Setenv("SCRAPER_RESPECT_ROBOTS", "true")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Site.BaseURL != "https://staging.backstage.com" {
		t.Errorf("base URL not overridden: %s", cfg.Site.BaseURL)
	}
	if cfg.Scrape.RequestDelay != 500*time.Millisecond {
		t.Errorf("request delay not overridden: %s", cfg.Scrape.RequestDelay)
	}
	if cfg.Scrape.ProfileWorkers != 2 || cfg.Scrape.ImageWorkers != 7 {
		t.Errorf("workers not overridden: %d/%d", cfg.Scrape.ProfileWorkers, cfg.Scrape.ImageWorkers)
	}
	if cfg.Scrape.MaxRetries != 1 {
		t.Errorf("max retries not overridden: %d", cfg.Scrape.MaxRetries)
	}
	if cfg.Output.BaseDirectory != "/tmp/actors" {
		t.Errorf("output dir not overridden: %s", cfg.Output.BaseDirectory)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level not overridden: %s", cfg.Logging.Level)
	}
	if !cfg.Site.RespectRobots {
		t.Error("respect robots not overridden")
	}
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SCRAPER_REQUEST_DELAY", "not-a-duration")
	t.Setenv("SCRAPER_PROFILE_WORKERS", "-5")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Scrape.RequestDelay != 2*time.Second {
		t.Errorf("invalid delay should keep default, got %s", cfg.Scrape.RequestDelay)
	}
	if cfg.Scrape.ProfileWorkers != 3 {
		t.Errorf("invalid workers should keep default, got %d", cfg.Scrape.ProfileWorkers)
	}
}

func TestRequestBudgetConfig(t *testing.T) {
	t.Setenv("SCRAPER_MAX_REQUESTS_PER_MINUTE", "90")

	cfg := DefaultConfig()
	if cfg.Scrape.MaxRequestsPerMinute != 0 {
		t.Errorf("budget should default to off, got %d", cfg.Scrape.MaxRequestsPerMinute)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.Scrape.MaxRequestsPerMinute != 90 {
		t.Errorf("budget not overridden: %d", cfg.Scrape.MaxRequestsPerMinute)
	}

	cfg.MergeCommandLineFlags(map[string]interface{}{"max-requests-per-minute": 120})
	if cfg.Scrape.MaxRequestsPerMinute != 120 {
		t.Errorf("budget flag not merged: %d", cfg.Scrape.MaxRequestsPerMinute)
	}

	cfg.Scrape.MaxRequestsPerMinute = -1
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "max requests per minute") {
		t.Errorf("negative budget should fail validation, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing base URL", func(c *Config) { c.Site.BaseURL = "" }, "base URL is required"},
		{"missing user agent", func(c *Config) { c.Site.UserAgent = "" }, "user agent is required"},
		{"negative delay", func(c *Config) { c.Scrape.RequestDelay = -time.Second }, "cannot be negative"},
		{"zero timeout", func(c *Config) { c.Scrape.RequestTimeout = 0 }, "timeout must be positive"},
		{"zero profile workers", func(c *Config) { c.Scrape.ProfileWorkers = 0 }, "profile workers must be positive"},
		{"too many profile workers", func(c *Config) { c.Scrape.ProfileWorkers = 11 }, "should not exceed 10"},
		{"zero image workers", func(c *Config) { c.Scrape.ImageWorkers = 0 }, "image workers must be positive"},
		{"too many image workers", func(c *Config) { c.Scrape.ImageWorkers = 21 }, "should not exceed 20"},
		{"missing output directory", func(c *Config) { c.Output.BaseDirectory = "" }, "output directory is required"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateJoinsMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Site.BaseURL = ""
	cfg.Scrape.ImageWorkers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "base URL") || !strings.Contains(err.Error(), "image workers") {
		t.Errorf("expected both errors reported, got %q", err.Error())
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":          "/tmp/out",
		"profiles-file":   "list.txt",
		"profile-workers": 2,
		"image-workers":   4,
		"delay":           250 * time.Millisecond,
		"max-retries":     0,
		"log-level":       "warn",
	})

	if cfg.Output.BaseDirectory != "/tmp/out" {
		t.Errorf("output not merged: %s", cfg.Output.BaseDirectory)
	}
	if cfg.Output.ProfilesFile != "list.txt" {
		t.Errorf("profiles file not merged: %s", cfg.Output.ProfilesFile)
	}
	if cfg.Scrape.ProfileWorkers != 2 || cfg.Scrape.ImageWorkers != 4 {
		t.Errorf("workers not merged: %d/%d", cfg.Scrape.ProfileWorkers, cfg.Scrape.ImageWorkers)
	}
	if cfg.Scrape.RequestDelay != 250*time.Millisecond {
		t.Errorf("delay not merged: %s", cfg.Scrape.RequestDelay)
	}
	if cfg.Scrape.MaxRetries != 0 {
		t.Errorf("max retries not merged: %d", cfg.Scrape.MaxRetries)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level not merged: %s", cfg.Logging.Level)
	}
}

func TestMergeCommandLineFlagsIgnoresEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":          "",
		"profile-workers": 0,
	})

	if cfg.Output.BaseDirectory != "data/actors" {
		t.Errorf("empty output should keep default, got %s", cfg.Output.BaseDirectory)
	}
	if cfg.Scrape.ProfileWorkers != 3 {
		t.Errorf("zero workers should keep default, got %d", cfg.Scrape.ProfileWorkers)
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	saved := DefaultConfig()
	saved.Scrape.ProfileWorkers = 2
	saved.Scrape.RequestDelay = 750 * time.Millisecond
	saved.Output.BaseDirectory = "/tmp/actors"

	if err := saved.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if loaded.Scrape.ProfileWorkers != 2 {
		t.Errorf("profile workers not loaded: %d", loaded.Scrape.ProfileWorkers)
	}
	if loaded.Scrape.RequestDelay != 750*time.Millisecond {
		t.Errorf("request delay not loaded: %s", loaded.Scrape.RequestDelay)
	}
	if loaded.Output.BaseDirectory != "/tmp/actors" {
		t.Errorf("output directory not loaded: %s", loaded.Output.BaseDirectory)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing file")
	}
}
