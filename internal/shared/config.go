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

const (
	DefaultWorkers = 3
	MaxWorkers     = 10
	DefaultQueue   = 64
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Watch       WatchConfig       `toml:"watch"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify Web API client credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	APIURL       string `toml:"api_url"`
	TokenURL     string `toml:"token_url"`
	Market       string `toml:"market"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DownloadsConfig points at the download queue API that accepts album submissions.
type DownloadsConfig struct {
	BaseURL   string `toml:"base_url"`
	AlbumType string `toml:"album_type"`
	Timeout   string `toml:"timeout"`
}

// RequestTimeout parses Timeout, defaulting to 30 seconds.
func (d DownloadsConfig) RequestTimeout() time.Duration {
	if dur, err := time.ParseDuration(d.Timeout); err == nil && dur > 0 {
		return dur
	}
	return 30 * time.Second
}

// WatchConfig holds the artist watch settings.
//
// Values are copied into snapshots by [WatchSettings], so a WatchConfig is never mutated after it is shared.
type WatchConfig struct {
	Enabled      bool    `toml:"enabled" json:"enabled"`
	PollInterval string  `toml:"poll_interval" json:"poll_interval"`
	Workers      int     `toml:"workers" json:"workers"`
	QueueSize    int     `toml:"queue_size" json:"queue_size"`
	RateLimit    float64 `toml:"rate_limit" json:"rate_limit"`
	AlbumTypes   string  `toml:"album_types" json:"album_types"`
}

// Interval parses PollInterval. A zero duration disables periodic checks.
func (w WatchConfig) Interval() time.Duration {
	dur, err := time.ParseDuration(w.PollInterval)
	if err != nil || dur < 0 {
		return 0
	}
	return dur
}

// WorkerCount clamps Workers to [1, MaxWorkers], defaulting to [DefaultWorkers].
func (w WatchConfig) WorkerCount() int {
	switch {
	case w.Workers <= 0:
		return DefaultWorkers
	case w.Workers > MaxWorkers:
		return MaxWorkers
	default:
		return w.Workers
	}
}

// QueueCapacity returns QueueSize or [DefaultQueue].
func (w WatchConfig) QueueCapacity() int {
	if w.QueueSize <= 0 {
		return DefaultQueue
	}
	return w.QueueSize
}

// Validate reports settings that cannot be applied.
func (w WatchConfig) Validate() error {
	if w.PollInterval != "" {
		if dur, err := time.ParseDuration(w.PollInterval); err != nil || dur < 0 {
			return fmt.Errorf("%w: poll_interval %q", ErrInvalidConfig, w.PollInterval)
		}
	}
	if w.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	if w.Workers < 0 || w.QueueSize < 0 {
		return fmt.Errorf("%w: workers and queue_size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Watch.Validate(); err != nil {
		return nil, err
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
