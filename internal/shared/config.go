package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the TOML configuration.
const (
	EnvAPIBase = "SKYPLAY_API_BASE"
	EnvDBPath  = "SKYPLAY_DB_PATH"
	EnvLogFile = "SKYPLAY_LOG_FILE"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Player   PlayerConfig   `toml:"player"`
	Log      LogConfig      `toml:"log"`
	Export   ExportConfig   `toml:"export"`
}

// APIConfig contains the catalog API origin and request settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlayerConfig contains playback defaults.
type PlayerConfig struct {
	Volume           int `toml:"volume"`
	LikeErrorSeconds int `toml:"like_error_seconds"`
	// MaxDownloadMB caps the size of a buffered track file.
	MaxDownloadMB int `toml:"max_download_mb"`
}

// LogConfig contains logger settings. An empty File means the per-user state directory.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ExportConfig controls bulk selection exports.
type ExportConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LikeErrorTTL returns how long a like error stays visible.
func (c PlayerConfig) LikeErrorTTL() time.Duration {
	if c.LikeErrorSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.LikeErrorSeconds) * time.Second
}

// MaxDownloadBytes returns the largest track file the player will buffer.
func (c PlayerConfig) MaxDownloadBytes() int64 {
	if c.MaxDownloadMB <= 0 {
		return 64 << 20
	}
	return int64(c.MaxDownloadMB) << 20
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads .env files (missing files are ignored) and applies environment overrides.
func (c *Config) ApplyEnv(files ...string) {
	_ = godotenv.Load(files...)

	if v := os.Getenv(EnvAPIBase); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
}

// DatabasePath returns the configured database path or the per-user default.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	return DataFile(AppName + ".db")
}

// LogFilePath returns the configured log file or the per-user default.
func (c *Config) LogFilePath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return StateFile(AppName + ".log")
}
