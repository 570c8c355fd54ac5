package config

// Config represents the complete configuration structure
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Download DownloadConfig `mapstructure:"download"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds Giant Bomb API connection details
type APIConfig struct {
	Key         string `mapstructure:"key"`
	BaseURL     string `mapstructure:"base_url"`
	RateLimitMs int    `mapstructure:"rate_limit_ms"`
}

// CacheConfig controls the on-disk response cache
type CacheConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Path         string `mapstructure:"path"`
	TTL          string `mapstructure:"ttl"`
	FlushDelayMs int    `mapstructure:"flush_delay_ms"`
}

// CatalogConfig controls how seasons are derived from a show
type CatalogConfig struct {
	// CopyYear labels seasons with the literal release year and
	// disables the year-boundary correction heuristic.
	CopyYear bool `mapstructure:"copy_year"`
}

// DownloadConfig controls where and how episodes are written
type DownloadConfig struct {
	Directory string `mapstructure:"directory"`
	Quality   string `mapstructure:"quality"`
	Template  string `mapstructure:"template"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
