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

	"tweetstats/pkg/logger"
)

// Config holds all configuration options for the stats collector
type Config struct {
	// Twitter API credentials and targets
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Collection settings
	Collect CollectConfig `yaml:"collect" json:"collect"`

	// Report sink settings
	Sinks SinkConfig `yaml:"sinks" json:"sinks"`

	// Logging configuration
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// TwitterConfig holds Twitter-specific configuration
type TwitterConfig struct {
	BearerToken string   `yaml:"bearer_token" json:"bearer_token"`
	Username    string   `yaml:"username" json:"username"`
	Accounts    []string `yaml:"accounts" json:"accounts"`
	BaseURL     string   `yaml:"base_url" json:"base_url"`
	UserAgent   string   `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds client-side rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	Window            time.Duration `yaml:"window" json:"window"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// CollectConfig holds collection depth and pagination settings
type CollectConfig struct {
	TimelinePages  int           `yaml:"timeline_pages" json:"timeline_pages"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	FollowerPages  int           `yaml:"follower_pages" json:"follower_pages"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// SinkConfig holds configuration for every report sink
type SinkConfig struct {
	Stdout  StdoutSinkConfig  `yaml:"stdout" json:"stdout"`
	Archive ArchiveSinkConfig `yaml:"archive" json:"archive"`
	Influx  InfluxSinkConfig  `yaml:"influx" json:"influx"`
	Redis   RedisSinkConfig   `yaml:"redis" json:"redis"`
}

// StdoutSinkConfig configures the terminal report sink
type StdoutSinkConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Format  string `yaml:"format" json:"format"` // "table" or "json"
}

// ArchiveSinkConfig configures the on-disk report archive
type ArchiveSinkConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory" json:"directory"`
}

// InfluxSinkConfig configures the InfluxDB sink
type InfluxSinkConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Database string `yaml:"database" json:"database"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RedisSinkConfig configures the Redis snapshot store
type RedisSinkConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Addr        string `yaml:"addr" json:"addr"`
	Password    string `yaml:"password" json:"password"`
	DB          int    `yaml:"db" json:"db"`
	HistorySize int    `yaml:"history_size" json:"history_size"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			BaseURL:   "https://api.twitter.com",
			UserAgent: "tweetstats/2.0",
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: 900,
			Window:            15 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    60 * time.Second,
		},
		Collect: CollectConfig{
			TimelinePages:  10,
			PageSize:       200,
			FollowerPages:  5,
			RequestTimeout: 30 * time.Second,
		},
		Sinks: SinkConfig{
			Stdout:  StdoutSinkConfig{Enabled: true, Format: "table"},
			Archive: ArchiveSinkConfig{Enabled: false, Directory: "./reports"},
			Influx:  InfluxSinkConfig{Enabled: false, Database: "tweetstats"},
			Redis:   RedisSinkConfig{Enabled: false, Addr: "localhost:6379", HistorySize: 100},
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("TWEETSTATS_BEARER_TOKEN"); token != "" {
		c.Twitter.BearerToken = token
	}
	if username := os.Getenv("TWEETSTATS_USERNAME"); username != "" {
		c.Twitter.Username = username
	}
	if baseURL := os.Getenv("TWEETSTATS_API_BASE_URL"); baseURL != "" {
		c.Twitter.BaseURL = baseURL
	}

	if rpw := os.Getenv("TWEETSTATS_REQUESTS_PER_WINDOW"); rpw != "" {
		if val, err := strconv.Atoi(rpw); err == nil && val > 0 {
			c.RateLimit.RequestsPerWindow = val
		}
	}
	if pages := os.Getenv("TWEETSTATS_TIMELINE_PAGES"); pages != "" {
		if val, err := strconv.Atoi(pages); err == nil && val > 0 {
			c.Collect.TimelinePages = val
		}
	}
	if logLevel := os.Getenv("TWEETSTATS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	// InfluxDB settings keep the variable names the original cron job used
	if host := os.Getenv("INFLUXDB_HOST"); host != "" {
		c.Sinks.Influx.Host = host
		c.Sinks.Influx.Enabled = true
	}
	if db := os.Getenv("INFLUXDB_DATABASE"); db != "" {
		c.Sinks.Influx.Database = db
	}
	if user := os.Getenv("INFLUXDB_USER"); user != "" {
		c.Sinks.Influx.Username = user
	}
	if pass := os.Getenv("INFLUXDB_PASSWORD"); pass != "" {
		c.Sinks.Influx.Password = pass
	}

	if addr := os.Getenv("TWEETSTATS_REDIS_ADDR"); addr != "" {
		c.Sinks.Redis.Addr = addr
		c.Sinks.Redis.Enabled = true
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
		".tweetstats.yaml",
		".tweetstats.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "tweetstats", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "tweetstats", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".tweetstats.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The bearer token is
// deliberately not checked here: stored credentials are resolved after
// loading, so ValidateCredentials runs separately once that happened.
func (c *Config) Validate() error {
	var errs []error

	if c.Twitter.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}

	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("requests per window must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}

	if c.Collect.TimelinePages < 0 {
		errs = append(errs, errors.New("timeline pages cannot be negative"))
	}
	if c.Collect.PageSize <= 0 || c.Collect.PageSize > 200 {
		errs = append(errs, errors.New("page size must be between 1 and 200"))
	}
	if c.Collect.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Sinks.Influx.Enabled {
		if c.Sinks.Influx.Host == "" {
			errs = append(errs, errors.New("influx host is required when influx sink is enabled"))
		}
		if c.Sinks.Influx.Database == "" {
			errs = append(errs, errors.New("influx database is required when influx sink is enabled"))
		}
	}
	if c.Sinks.Redis.Enabled && c.Sinks.Redis.Addr == "" {
		errs = append(errs, errors.New("redis address is required when redis sink is enabled"))
	}
	if c.Sinks.Archive.Enabled && c.Sinks.Archive.Directory == "" {
		errs = append(errs, errors.New("archive directory is required when archive sink is enabled"))
	}

	switch strings.ToLower(c.Sinks.Stdout.Format) {
	case "table", "json", "":
	default:
		errs = append(errs, errors.New("stdout format must be table or json"))
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

// ValidateCredentials checks that an API credential is present. Called
// after the credential manager had a chance to fill in a stored token.
func (c *Config) ValidateCredentials() error {
	if c.Twitter.BearerToken == "" {
		return errors.New("Twitter bearer token is required")
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if token, ok := flags["bearer-token"].(string); ok && token != "" {
		c.Twitter.BearerToken = token
	}
	if rpw, ok := flags["rate-limit"].(int); ok && rpw > 0 {
		c.RateLimit.RequestsPerWindow = rpw
	}
	if attempts, ok := flags["max-retries"].(int); ok && attempts >= 0 {
		c.Retry.MaxAttempts = attempts
	}
	if pages, ok := flags["timeline-pages"].(int); ok && pages >= 0 {
		c.Collect.TimelinePages = pages
	}
	if dir, ok := flags["archive-dir"].(string); ok && dir != "" {
		c.Sinks.Archive.Directory = dir
		c.Sinks.Archive.Enabled = true
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Sinks.Stdout.Format = format
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetstats.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
