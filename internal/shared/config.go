package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	PhotoPrism ServiceConfig   `toml:"photoprism"`
	Lychee     ServiceConfig   `toml:"lychee"`
	Database   DatabaseConfig  `toml:"database"`
	Transfer   TransferConfig  `toml:"transfer"`
	Thumbnails ThumbnailConfig `toml:"thumbnails"`
	Log        LogConfig       `toml:"log"`
}

// ServiceConfig holds the base URL and login for one remote photo service.
type ServiceConfig struct {
	URL            string `toml:"url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the configured HTTP timeout, or zero for none.
func (s ServiceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// TransferConfig tunes download and upload behaviour.
type TransferConfig struct {
	// LegacyTokenFallback retries downloads with the preview and access tokens after the download token fails.
	LegacyTokenFallback bool `toml:"legacy_token_fallback"`
	// StreamingFallback enables the streamed multipart upload after a rejected buffered upload.
	StreamingFallback bool `toml:"streaming_fallback"`
	// RecordHistory persists a row per transfer attempt in the database.
	RecordHistory bool `toml:"record_history"`
}

// ThumbnailConfig tunes the search grid and thumbnail prefetching.
type ThumbnailConfig struct {
	SearchCount  int     `toml:"search_count"`
	MaxWorkers   int     `toml:"max_workers"`
	RateLimit    float64 `toml:"rate_limit"`
	PreviewWidth uint    `toml:"preview_width"` // terminal columns used to render a preview
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
