package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gbgrab"))
		}

		// Check /etc
		v.AddConfigPath("/etc/gbgrab/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "https://www.giantbomb.com/api")
	v.SetDefault("api.rate_limit_ms", 1000)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", defaultCachePath())
	v.SetDefault("cache.ttl", "4h")
	v.SetDefault("cache.flush_delay_ms", 500)

	// Catalog defaults
	v.SetDefault("catalog.copy_year", false)

	// Download defaults
	v.SetDefault("download.directory", ".")
	v.SetDefault("download.quality", "highest")
	v.SetDefault("download.template", "{show} - S{season}E{episode} - {name}")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cache.json"
	}
	return filepath.Join(home, ".gbgrab", "cache.json")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.Key == "" || cfg.API.Key == "your-api-key-here" {
		return fmt.Errorf("api.key must be set to a valid API key")
	}

	if cfg.API.RateLimitMs < 0 {
		return fmt.Errorf("api.rate_limit_ms must not be negative")
	}

	if _, err := time.ParseDuration(cfg.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache.ttl: %w", err)
	}

	// Validate quality tier
	validQualities := map[string]bool{
		"highest": true,
		"hd":      true,
		"high":    true,
		"low":     true,
	}
	if !validQualities[cfg.Download.Quality] {
		return fmt.Errorf("invalid download quality: %s", cfg.Download.Quality)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// CacheTTL returns the parsed cache TTL duration.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 4 * time.Hour
	}
	return d
}

// RateLimit returns the minimum spacing between API requests.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.API.RateLimitMs) * time.Millisecond
}

// FlushDelay returns the cache flush debounce window.
func (c *Config) FlushDelay() time.Duration {
	return time.Duration(c.Cache.FlushDelayMs) * time.Millisecond
}
