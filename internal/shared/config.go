package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Log         LogConfig         `toml:"log"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Source      SourceConfig      `toml:"source"`
	Enrichment  EnrichmentConfig  `toml:"enrichment"`
	Sync        SyncConfig        `toml:"sync"`
}

// LogConfig controls the logger level.
type LogConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API client-credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver" validate:"required,oneof=sqlite3 postgres"`
	Path         string `toml:"path" validate:"required_if=Driver sqlite3"`
	DSN          string `toml:"dsn" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port" validate:"gt=0,lte=65535"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute" validate:"gte=0"`
	AllowedOrigins     []string `toml:"allowed_origins"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SourceConfig describes the festival program API.
type SourceConfig struct {
	BaseURL          string   `toml:"base_url" validate:"required,url"`
	FilterPath       string   `toml:"filter_path" validate:"required"`
	Section          string   `toml:"section"`
	PageSize         int      `toml:"page_size" validate:"gte=0"`
	TimeoutSeconds   int      `toml:"timeout_seconds" validate:"gte=0"`
	UserAgent        string   `toml:"user_agent"`
	LineupCategories []string `toml:"lineup_categories"`
}

// Timeout returns the upstream request timeout, 10 seconds when unset.
func (s SourceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// EnrichmentConfig controls artist enrichment via Spotify.
type EnrichmentConfig struct {
	Market            string   `toml:"market" validate:"omitempty,len=2"`
	FallbackMarkets   []string `toml:"fallback_markets" validate:"dive,len=2"`
	BatchSize         int      `toml:"batch_size" validate:"gte=0"`
	RequestIntervalMS int      `toml:"request_interval_ms" validate:"gte=0"`
}

// SyncConfig controls the sync pipeline.
type SyncConfig struct {
	LineupBatchSize                int     `toml:"lineup_batch_size" validate:"gte=0"`
	LineupBatchDelayMS             int     `toml:"lineup_batch_delay_ms" validate:"gte=0"`
	LinkMinConfidence              float64 `toml:"link_min_confidence" validate:"gte=0,lte=1"`
	LinkSessionTTLSeconds          int     `toml:"link_session_ttl_seconds" validate:"gte=0"`
	ComprehensiveSessionTTLSeconds int     `toml:"comprehensive_session_ttl_seconds" validate:"gte=0"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults, and secrets may be supplied through the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv()
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

// ApplyEnv overrides credentials and connection strings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("LINEUP_DATABASE_DSN"); v != "" {
		c.Database.Driver = DriverPostgres
		c.Database.DSN = v
	}
}

// Validate checks struct constraints on the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// HasSpotifyCredentials reports whether real client credentials are configured.
func (c *Config) HasSpotifyCredentials() bool {
	s := c.Credentials.Spotify
	if s.ClientID == "" || s.ClientSecret == "" {
		return false
	}
	return s.ClientID != "your_spotify_client_id" && s.ClientSecret != "your_spotify_client_secret"
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
