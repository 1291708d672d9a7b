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

// Config holds all configuration options for the ingester
type Config struct {
	// Remote API credentials and client behaviour
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Document store connection
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Cool-down policy applied by the pager on rate-limit signals
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Search mode settings
	Search SearchConfig `yaml:"search" json:"search"`

	// Users mode settings
	Users UsersConfig `yaml:"users" json:"users"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds remote API configuration
type TwitterConfig struct {
	APIKey            string        `yaml:"api_key" json:"api_key"`
	APISecret         string        `yaml:"api_secret" json:"api_secret"`
	AccessToken       string        `yaml:"access_token" json:"access_token"`
	TokenSecret       string        `yaml:"token_secret" json:"token_secret"`
	Account           string        `yaml:"account" json:"account"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
}

// HasCredentials reports whether all four OAuth1 values are set
func (t TwitterConfig) HasCredentials() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.TokenSecret != ""
}

// DatabaseConfig holds document store configuration
type DatabaseConfig struct {
	URL            string        `yaml:"url" json:"url"`
	Name           string        `yaml:"name" json:"name"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
}

// RateLimitConfig holds the rate-limit cool-down policy
type RateLimitConfig struct {
	Cooldown time.Duration `yaml:"cooldown" json:"cooldown"`
	// MaxCooldowns bounds consecutive cool-downs per advance; 0 is unbounded
	MaxCooldowns int `yaml:"max_cooldowns" json:"max_cooldowns"`
}

// SearchConfig holds search mode configuration
type SearchConfig struct {
	QueryFile  string `yaml:"query_file" json:"query_file"`
	Sort       string `yaml:"sort" json:"sort"`
	Target     int    `yaml:"target" json:"target"`
	Language   string `yaml:"language" json:"language"`
	Collection string `yaml:"collection" json:"collection"`
	Dedupe     bool   `yaml:"dedupe" json:"dedupe"`
	Resume     bool   `yaml:"resume" json:"resume"`
}

// UsersConfig holds users mode configuration
type UsersConfig struct {
	InCollection       string `yaml:"in_collection" json:"in_collection"`
	OutCollection      string `yaml:"out_collection" json:"out_collection"`
	MaxFollowerIDs     int    `yaml:"max_follower_ids" json:"max_follower_ids"`
	MaxFollowingIDs    int    `yaml:"max_following_ids" json:"max_following_ids"`
	TimelineCutoffYear int    `yaml:"timeline_cutoff_year" json:"timeline_cutoff_year"`
}

// MetricsConfig holds the metrics endpoint configuration
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// SortModes lists the accepted search result orderings
var SortModes = []string{"popular", "recent", "mixed"}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
			MaxRetries:        5,
			RetryDelay:        5 * time.Second,
			Timeout:           30 * time.Second,
		},
		Database: DatabaseConfig{
			URL:            "mongodb://localhost:27017",
			Name:           "twitter",
			ConnectTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Cooldown:     15 * time.Minute,
			MaxCooldowns: 0,
		},
		Search: SearchConfig{
			QueryFile:  "search.txt",
			Sort:       "popular",
			Target:     100000,
			Language:   "en",
			Collection: "search",
		},
		Users: UsersConfig{
			InCollection:  "search",
			OutCollection: "search",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Remote API credentials use the unprefixed names
	if v := os.Getenv("TWITTER_API_KEY"); v != "" {
		c.Twitter.APIKey = v
	}
	if v := os.Getenv("TWITTER_API_SECRET"); v != "" {
		c.Twitter.APISecret = v
	}
	if v := os.Getenv("TWITTER_ACCESS_TOKEN"); v != "" {
		c.Twitter.AccessToken = v
	}
	if v := os.Getenv("TWITTER_TOKEN_SECRET"); v != "" {
		c.Twitter.TokenSecret = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}

	if v := os.Getenv("TKS_DATABASE_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("TKS_ACCOUNT"); v != "" {
		c.Twitter.Account = v
	}

	var errs []error
	intVars := map[string]*int{
		"TKS_REQUESTS_PER_MINUTE":  &c.Twitter.RequestsPerMinute,
		"TKS_MAX_RETRIES":          &c.Twitter.MaxRetries,
		"TKS_MAX_COOLDOWNS":        &c.RateLimit.MaxCooldowns,
		"TKS_TIMELINE_CUTOFF_YEAR": &c.Users.TimelineCutoffYear,
	}
	for name, dst := range intVars {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			*dst = n
		}
	}

	durVars := map[string]*time.Duration{
		"TKS_COOLDOWN":    &c.RateLimit.Cooldown,
		"TKS_RETRY_DELAY": &c.Twitter.RetryDelay,
	}
	for name, dst := range durVars {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			*dst = d
		}
	}

	if v := os.Getenv("TKS_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("TKS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
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
	home := os.Getenv("HOME")
	locations := []string{
		".twitterkeywordsearch.yaml",
		".twitterkeywordsearch.yml",
		filepath.Join(home, ".config", "twitterkeywordsearch", "config.yaml"),
		filepath.Join(home, ".config", "twitterkeywordsearch", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are not
// checked here since they may come from the credential manager.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database URL is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database name is required"))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("database connect timeout must be positive"))
	}

	if c.Twitter.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Twitter.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Twitter.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.RateLimit.Cooldown <= 0 {
		errs = append(errs, errors.New("rate limit cooldown must be positive"))
	}
	if c.RateLimit.MaxCooldowns < 0 {
		errs = append(errs, errors.New("max cooldowns cannot be negative"))
	}

	if !IsSortMode(c.Search.Sort) {
		errs = append(errs, fmt.Errorf("invalid sort mode %q (want one of %s)", c.Search.Sort, strings.Join(SortModes, ", ")))
	}
	if c.Search.Target <= 0 {
		errs = append(errs, errors.New("search target must be positive"))
	}
	if c.Search.Collection == "" {
		errs = append(errs, errors.New("search collection is required"))
	}

	if c.Users.InCollection == "" || c.Users.OutCollection == "" {
		errs = append(errs, errors.New("users collections are required"))
	}
	if c.Users.MaxFollowerIDs < 0 || c.Users.MaxFollowingIDs < 0 {
		errs = append(errs, errors.New("id bounds cannot be negative"))
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

// IsSortMode reports whether s is an accepted search ordering
func IsSortMode(s string) bool {
	for _, m := range SortModes {
		if s == m {
			return true
		}
	}
	return false
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

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["query"].(string); ok && v != "" {
		c.Search.QueryFile = v
	}
	if v, ok := flags["sort"].(string); ok && v != "" {
		c.Search.Sort = v
	}
	if v, ok := flags["target"].(int); ok {
		c.Search.Target = v
	}
	if v, ok := flags["dedupe"].(bool); ok {
		c.Search.Dedupe = v
	}
	if v, ok := flags["resume"].(bool); ok {
		c.Search.Resume = v
	}
	if v, ok := flags["incollection"].(string); ok && v != "" {
		c.Users.InCollection = v
	}
	if v, ok := flags["outcollection"].(string); ok && v != "" {
		c.Users.OutCollection = v
		c.Search.Collection = v
	}
	if v, ok := flags["max-followers"].(int); ok {
		c.Users.MaxFollowerIDs = v
	}
	if v, ok := flags["max-following"].(int); ok {
		c.Users.MaxFollowingIDs = v
	}
	if v, ok := flags["cutoff-year"].(int); ok {
		c.Users.TimelineCutoffYear = v
	}
	if v, ok := flags["database-url"].(string); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Twitter.Account = v
	}
	if v, ok := flags["cooldown"].(time.Duration); ok && v > 0 {
		c.RateLimit.Cooldown = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Addr = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".twitterkeywordsearch.env"))

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
