package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			Key:         "valid-api-key",
			BaseURL:     "https://www.giantbomb.com/api",
			RateLimitMs: 1000,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "cache.json",
			TTL:     "4h",
		},
		Download: DownloadConfig{
			Quality: "highest",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing API key",
			mutate:  func(c *Config) { c.API.Key = "" },
			wantErr: true,
		},
		{
			name:    "placeholder API key",
			mutate:  func(c *Config) { c.API.Key = "your-api-key-here" },
			wantErr: true,
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.API.RateLimitMs = -1 },
			wantErr: true,
		},
		{
			name:    "unparsable cache TTL",
			mutate:  func(c *Config) { c.Cache.TTL = "four hours" },
			wantErr: true,
		},
		{
			name:    "invalid quality tier",
			mutate:  func(c *Config) { c.Download.Quality = "4k" },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()
	cfg.API.RateLimitMs = 250
	cfg.Cache.FlushDelayMs = 500

	if got := cfg.RateLimit().Milliseconds(); got != 250 {
		t.Errorf("RateLimit() = %dms, want 250ms", got)
	}
	if got := cfg.FlushDelay().Milliseconds(); got != 500 {
		t.Errorf("FlushDelay() = %dms, want 500ms", got)
	}
	if got := cfg.CacheTTL().Hours(); got != 4 {
		t.Errorf("CacheTTL() = %vh, want 4h", got)
	}

	// A TTL that fails to parse falls back to the default
	cfg.Cache.TTL = "broken"
	if got := cfg.CacheTTL().Hours(); got != 4 {
		t.Errorf("CacheTTL() fallback = %vh, want 4h", got)
	}
}
