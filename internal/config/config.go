// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
)

// Config holds all server configuration.
type Config struct {
	// Metrics
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	DataPath         string
	AssetsFolder     string
	DefaultWebsiteID string

	// Hosting. HostingPath empty means each site publishes to its own
	// directory under DataPath.
	HostingPath string

	// S3 hosting (optional — enabled when a bucket is configured)
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3PublicURL string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		MetricsAddr:      envOr("METRICS_ADDR", ":9090"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "json"),
		DataPath:         envOr("DATA_PATH", "/data/websites"),
		AssetsFolder:     envOr("ASSETS_FOLDER", "assets"),
		DefaultWebsiteID: envOr("DEFAULT_WEBSITE_ID", "default"),
		HostingPath:      envOr("HOSTING_PATH", ""),
		S3Endpoint:       envOr("S3_ENDPOINT", ""),
		S3Bucket:         envOr("S3_BUCKET", ""),
		S3AccessKey:      envOr("S3_ACCESS_KEY", ""),
		S3SecretKey:      envOr("S3_SECRET_KEY", ""),
		S3Region:         envOr("S3_REGION", "us-east-1"),
		S3PublicURL:      envOr("S3_PUBLIC_URL", ""),
	}

	if cfg.DataPath == "" {
		return nil, fmt.Errorf("DATA_PATH is required")
	}
	if cfg.S3Bucket != "" && cfg.S3AccessKey == "" {
		return nil, fmt.Errorf("S3_ACCESS_KEY is required when S3_BUCKET is set")
	}

	return cfg, nil
}

// S3Enabled reports whether the optional S3 hosting connector should be
// registered.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
