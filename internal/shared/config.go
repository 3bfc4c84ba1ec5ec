package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Migration   MigrationConfig   `toml:"migration"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YTMusic YTMusicConfig `toml:"ytmusic"`
}

// SpotifyConfig contains Spotify API credentials and the persisted OAuth
// token from the last login.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// Map flattens the Spotify credentials into the form Authenticate expects.
func (s SpotifyConfig) Map() map[string]string {
	m := map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
	if s.AccessToken != "" {
		m["access_token"] = s.AccessToken
	}
	if s.RefreshToken != "" {
		m["refresh_token"] = s.RefreshToken
	}
	return m
}

// Update copies a freshly exchanged token into the config for persistence.
func (s *SpotifyConfig) Update(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	s.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		s.RefreshToken = tok.RefreshToken
	}
	s.TokenExpiry = tok.Expiry
}

// Token rebuilds the stored OAuth token, or nil when none has been saved.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expiry:       s.TokenExpiry,
		TokenType:    "Bearer",
	}
}

// YTMusicConfig contains the YouTube Music proxy settings.
type YTMusicConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the OAuth callback.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MigrationConfig tunes destination request pacing and export concurrency.
type MigrationConfig struct {
	RateLimit float64 `toml:"rate_limit"`
	Workers   int     `toml:"workers"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to path as TOML, preserving
// tokens stored by the auth flow.
func SaveConfig(config *Config, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
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
		return fmt.Errorf("config file already exists at %s: %w", path, os.ErrExist)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credential environment variables onto unset fields so
// the tool can run without a config file.
func (c *Config) ApplyEnv() {
	spotify := &c.Credentials.Spotify
	if spotify.ClientID == "" {
		spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if spotify.ClientSecret == "" {
		spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" && spotify.RedirectURI == "" {
		spotify.RedirectURI = v
	}
	if v := os.Getenv("YTMUSIC_HEADERS_FILE"); v != "" && c.Credentials.YTMusic.HeadersPath == "" {
		c.Credentials.YTMusic.HeadersPath = v
	}
}
