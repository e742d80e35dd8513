package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration
type Config struct {
	Addr           string
	LogLevel       string
	LogFormat      string
	Environment    string
	MaxDicePerType int
	CacheSize      int
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	ScriptTimeout  time.Duration
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Addr:           ":8080",
		LogLevel:       "info",
		LogFormat:      "text",
		Environment:    "dev",
		MaxDicePerType: 6,
		CacheSize:      256,
		CacheTTL:       10 * time.Minute,
		RequestTimeout: 30 * time.Second,
		ScriptTimeout:  2 * time.Second,
	}
}

// Load reads a .env file if present, then ARCS_* environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads ARCS_* environment variables over the defaults.
func FromEnv() (*Config, error) {
	d := Default()
	cfg := &Config{
		Addr:        getEnv("ARCS_ADDR", d.Addr),
		LogLevel:    getEnv("ARCS_LOG_LEVEL", d.LogLevel),
		LogFormat:   getEnv("ARCS_LOG_FORMAT", d.LogFormat),
		Environment: getEnv("ARCS_ENV", d.Environment),
	}

	var err error
	if cfg.MaxDicePerType, err = getInt("ARCS_MAX_DICE_PER_TYPE", d.MaxDicePerType); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = getInt("ARCS_CACHE_SIZE", d.CacheSize); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("ARCS_CACHE_TTL", d.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("ARCS_REQUEST_TIMEOUT", d.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.ScriptTimeout, err = getDuration("ARCS_SCRIPT_TIMEOUT", d.ScriptTimeout); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.MaxDicePerType < 0 {
		return fmt.Errorf("ARCS_MAX_DICE_PER_TYPE must be >= 0, got %d", c.MaxDicePerType)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("ARCS_CACHE_SIZE must be >= 0, got %d", c.CacheSize)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("ARCS_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.ScriptTimeout <= 0 {
		return fmt.Errorf("ARCS_SCRIPT_TIMEOUT must be positive, got %s", c.ScriptTimeout)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}
