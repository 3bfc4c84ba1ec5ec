package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/services"
	"github.com/desertthunder/trx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv()

	var source services.Source
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if token := config.Credentials.Spotify.Token(); token != nil {
				svc.SetToken(token)
			}
			source = svc
		} else {
			logger.Warn("spotify service unavailable", "error", err)
		}
	}

	dest := services.NewYTMusicService(config.Credentials.YTMusic.ProxyURL, config.Migration.RateLimit)
	if headersPath := config.Credentials.YTMusic.HeadersPath; headersPath != "" {
		if err := dest.Authenticate(context.Background(), map[string]string{"auth_file": headersPath}); err != nil {
			logger.Warn("youtube music auth artifact unusable", "error", err)
		}
	}

	apiService := services.NewAPIService(config.Credentials.YTMusic.ProxyURL, nil)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Source:     source,
		Dest:       dest,
		API:        apiService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "trx",
		Usage:    "Migrate playlists between Spotify & YouTube Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		kind := shared.KindOf(err)
		logger.Error("command failed", "kind", kind.String(), "error", err)
		if advice := adviceFor(kind); advice != "" {
			fmt.Fprintln(os.Stderr, advice)
		}
		os.Exit(1)
	}
}

// adviceFor maps a failure class to a next step the user can act on.
func adviceFor(kind shared.ErrorKind) string {
	switch kind {
	case shared.KindConfiguration:
		return "Check config.toml; run 'trx setup-auth' if the YouTube Music auth artifact is missing."
	case shared.KindAuthentication:
		return "Run 'trx auth login' to reauthorize Spotify, or 'trx setup-auth' for YouTube Music."
	case shared.KindRateLimit:
		return "The service is throttling requests. Wait a minute, or lower rate_limit under [migration] in config.toml."
	case shared.KindNetwork:
		return "Check your network connection and that the proxy server is running ('trx auth status')."
	case shared.KindPlaylistNotFound:
		return "Run 'trx list-playlists' to see the playlists available for migration."
	case shared.KindRetryExhausted:
		return "The operation kept failing after retries. Check 'trx auth status' and try again later."
	default:
		return ""
	}
}
