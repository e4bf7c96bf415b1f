package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the scraper
type Config struct {
	// Target site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Scraping behavior
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Image validation thresholds
	Image ImageConfig `yaml:"image" json:"image"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds target-site configuration
type SiteConfig struct {
	BaseURL       string `yaml:"base_url" json:"base_url"`
	ListingPath   string `yaml:"listing_path" json:"listing_path"`
	UserAgent     string `yaml:"user_agent" json:"user_agent"`
	RespectRobots bool   `yaml:"respect_robots" json:"respect_robots"`
}

// ScrapeConfig holds request pacing and concurrency configuration.
// MaxRequestsPerMinute is a hard budget across all outgoing requests,
// on top of the per-page politeness delay (0 = no budget).
type ScrapeConfig struct {
	RequestDelay         time.Duration `yaml:"request_delay" json:"request_delay"`
	RequestTimeout       time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries           int           `yaml:"max_retries" json:"max_retries"`
	ProfileWorkers       int           `yaml:"profile_workers" json:"profile_workers"`
	ImageWorkers         int           `yaml:"image_workers" json:"image_workers"`
	MaxRequestsPerMinute int           `yaml:"max_requests_per_minute" json:"max_requests_per_minute"`
}

// ImageConfig holds thresholds a downloaded payload must clear to be kept
type ImageConfig struct {
	MinWidth    int   `yaml:"min_width" json:"min_width"`
	MinHeight   int   `yaml:"min_height" json:"min_height"`
	MinFileSize int64 `yaml:"min_file_size" json:"min_file_size"`
}

// OutputConfig holds output path configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ProfilesFile  string `yaml:"profiles_file" json:"profiles_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	Directory string `yaml:"directory" json:"directory"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:       "https://www.backstage.com",
			ListingPath:   "/talent/",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RespectRobots: false,
		},
		Scrape: ScrapeConfig{
			RequestDelay:         2 * time.Second,
			RequestTimeout:       30 * time.Second,
			MaxRetries:           3,
			ProfileWorkers:       3,
			ImageWorkers:         5,
			MaxRequestsPerMinute: 0,
		},
		Image: ImageConfig{
			MinWidth:    100,
			MinHeight:   100,
			MinFileSize: 1024,
		},
		Output: OutputConfig{
			BaseDirectory: "data/actors",
			ProfilesFile:  "all_profiles.txt",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Directory: "logs",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("SCRAPER_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if userAgent := os.Getenv("SCRAPER_USER_AGENT"); userAgent != "" {
		c.Site.UserAgent = userAgent
	}
	if robots := os.Getenv("SCRAPER_RESPECT_ROBOTS"); robots != "" {
		c.Site.RespectRobots = strings.ToLower(robots) == "true"
	}

	if delay := os.Getenv("SCRAPER_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d >= 0 {
			c.Scrape.RequestDelay = d
		}
	}
	if timeout := os.Getenv("SCRAPER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.Scrape.RequestTimeout = d
		}
	}
	if retries := os.Getenv("SCRAPER_MAX_RETRIES"); retries != "" {
		if val, err := strconv.Atoi(retries); err == nil && val >= 0 {
			c.Scrape.MaxRetries = val
		}
	}
	if workers := os.Getenv("SCRAPER_PROFILE_WORKERS"); workers != "" {
		if val, err := strconv.Atoi(workers); err == nil && val > 0 {
			c.Scrape.ProfileWorkers = val
		}
	}
	if workers := os.Getenv("SCRAPER_IMAGE_WORKERS"); workers != "" {
		if val, err := strconv.Atoi(workers); err == nil && val > 0 {
			c.Scrape.ImageWorkers = val
		}
	}
	if budget := os.Getenv("SCRAPER_MAX_REQUESTS_PER_MINUTE"); budget != "" {
		if val, err := strconv.Atoi(budget); err == nil && val >= 0 {
			c.Scrape.MaxRequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("SCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if profilesFile := os.Getenv("SCRAPER_PROFILES_FILE"); profilesFile != "" {
		c.Output.ProfilesFile = profilesFile
	}

	if logLevel := os.Getenv("SCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logDir := os.Getenv("SCRAPER_LOG_DIR"); logDir != "" {
		c.Logging.Directory = logDir
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".actress-scraper.yaml",
		".actress-scraper.yml",
		"actress-scraper.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "actress-scraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".actress-scraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if c.Site.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Scrape.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}
	if c.Scrape.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Scrape.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Scrape.ProfileWorkers <= 0 {
		errs = append(errs, errors.New("profile workers must be positive"))
	}
	if c.Scrape.ProfileWorkers > 10 {
		errs = append(errs, errors.New("profile workers should not exceed 10"))
	}
	if c.Scrape.ImageWorkers <= 0 {
		errs = append(errs, errors.New("image workers must be positive"))
	}
	if c.Scrape.ImageWorkers > 20 {
		errs = append(errs, errors.New("image workers should not exceed 20"))
	}
	if c.Scrape.MaxRequestsPerMinute < 0 {
		errs = append(errs, errors.New("max requests per minute cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.ProfilesFile == "" {
		errs = append(errs, errors.New("profiles file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if profilesFile, ok := flags["profiles-file"].(string); ok && profilesFile != "" {
		c.Output.ProfilesFile = profilesFile
	}
	if workers, ok := flags["profile-workers"].(int); ok && workers > 0 {
		c.Scrape.ProfileWorkers = workers
	}
	if workers, ok := flags["image-workers"].(int); ok && workers > 0 {
		c.Scrape.ImageWorkers = workers
	}
	if delay, ok := flags["delay"].(time.Duration); ok && delay >= 0 {
		c.Scrape.RequestDelay = delay
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.Scrape.MaxRetries = retries
	}
	if budget, ok := flags["max-requests-per-minute"].(int); ok && budget > 0 {
		c.Scrape.MaxRequestsPerMinute = budget
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".actress-scraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
