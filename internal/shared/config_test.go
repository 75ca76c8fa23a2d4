package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Driver != DriverSQLite {
			t.Errorf("expected driver %s, got %s", DriverSQLite, config.Database.Driver)
		}

		if config.Database.Path != "./lineup.db" {
			t.Errorf("expected database path ./lineup.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Sync.LineupBatchSize != 10 {
			t.Errorf("expected lineup batch size 10, got %d", config.Sync.LineupBatchSize)
		}

		if config.Enrichment.BatchSize != 100 {
			t.Errorf("expected enrichment batch size 100, got %d", config.Enrichment.BatchSize)
		}

		if config.HasSpotifyCredentials() {
			t.Error("placeholder credentials should not count as configured")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "")
		t.Setenv("LINEUP_DATABASE_DSN", "")

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20

[server]
host = "0.0.0.0"
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[enrichment]
market = "DK"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Database.MaxOpenConns != 20 {
			t.Errorf("expected max_open_conns 20, got %d", config.Database.MaxOpenConns)
		}
		if config.Database.MaxIdleConns != 5 {
			t.Errorf("expected default max_idle_conns 5, got %d", config.Database.MaxIdleConns)
		}
		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if config.Enrichment.Market != "DK" {
			t.Errorf("expected market DK, got %s", config.Enrichment.Market)
		}
		if len(config.Enrichment.FallbackMarkets) == 0 {
			t.Error("expected fallback markets to keep their defaults")
		}
		if !config.HasSpotifyCredentials() {
			t.Error("expected spotify credentials to be configured")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
		t.Setenv("LINEUP_DATABASE_DSN", "postgres://localhost/lineup?sslmode=disable")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "env-id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Database.Driver != DriverPostgres {
			t.Errorf("expected postgres driver, got %s", config.Database.Driver)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected config to validate: %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }},
			{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres; c.Database.DSN = "" }},
			{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }},
			{name: "confidence out of range", mutate: func(c *Config) { c.Sync.LinkMinConfidence = 1.5 }},
			{name: "bad market", mutate: func(c *Config) { c.Enrichment.Market = "USA" }},
			{name: "bad source url", mutate: func(c *Config) { c.Source.BaseURL = "not a url" }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
