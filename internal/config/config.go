// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/image-analyzer-mcp/internal/imaging"
	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
)

type Config struct {
	LogLevel  string
	LogFormat string

	// CacheSize bounds the number of analyzers kept by the image cache.
	// Zero means unbounded.
	CacheSize   int
	GrayModel   imaging.LumaModel
	GrayQuality imaging.Quality

	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// GrayHints returns the grayscale hints requests use when they name none.
func (c *Config) GrayHints() imaging.Hints {
	return imaging.Hints{Quality: c.GrayQuality}
}

// AnalyzerOptions returns the options every analyzer is created with.
func (c *Config) AnalyzerOptions() []imaging.AnalyzerOption {
	return []imaging.AnalyzerOption{imaging.WithLumaModel(c.GrayModel)}
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:           getEnvOrDefault("IMAGE_ANALYZER_LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("IMAGE_ANALYZER_LOG_FORMAT", "text"),
		CacheSize:          int(parseIntOrDefault("IMAGE_ANALYZER_CACHE_SIZE", 32)),
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB
	}

	model, err := imaging.ParseLumaModel(os.Getenv("IMAGE_ANALYZER_GRAY_MODEL"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_ANALYZER_GRAY_MODEL: %w", err)
	}
	cfg.GrayModel = model

	quality, err := imaging.ParseQuality(os.Getenv("IMAGE_ANALYZER_GRAY_QUALITY"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_ANALYZER_GRAY_QUALITY: %w", err)
	}
	cfg.GrayQuality = quality

	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid IMAGE_ANALYZER_LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid IMAGE_ANALYZER_LOG_FORMAT: %q", cfg.LogFormat)
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("IMAGE_ANALYZER_CACHE_SIZE must be >= 0 (got %d)", cfg.CacheSize)
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
