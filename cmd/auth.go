package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/trx/internal/server"
	"github.com/desertthunder/trx/internal/services"
	"github.com/desertthunder/trx/internal/shared"
)

// AuthLogin runs the full Spotify OAuth2 authorization flow.
//
// Starts a local HTTP server, opens the browser for user authorization,
// exchanges the code for tokens and persists them to config.toml.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}

	if r.config.Credentials.Spotify.ClientID == "" || r.config.Credentials.Spotify.ClientSecret == "" {
		return &shared.ConfigurationError{Detail: "Spotify client_id and client_secret must be set in config.toml"}
	}

	oauthSrv, ok := r.source.(services.OAuthService)
	if !ok {
		svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		r.source = svc
		oauthSrv = svc
	}

	token, err := r.doOAuth(oauthSrv, "authorization")
	if err != nil {
		return err
	}

	oauthSrv.SetToken(token)
	r.config.Credentials.Spotify.Update(token)

	if err := shared.SaveConfig(r.config, configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: trx list-playlists\n")

	return nil
}

// AuthStatus reports destination proxy health and Spotify token state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	if r.api == nil {
		return fmt.Errorf("%w: proxy client not initialized", shared.ErrServiceUnavailable)
	}

	resp, err := r.api.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}

	r.writePlain("✓ Proxy is healthy\n")
	if healthData, ok := resp.JSONData.(map[string]any); ok {
		if status, ok := healthData["status"].(string); ok {
			r.writePlain("Status: %s\n", status)
		}
		if authenticated, ok := healthData["authenticated"].(bool); ok {
			if authenticated {
				r.writePlain("YouTube Music: ✓ Authenticated\n")
			} else {
				r.writePlain("YouTube Music: ✗ Not authenticated (run 'trx setup-auth')\n")
			}
		}
	}

	token := r.config.Credentials.Spotify.Token()
	switch {
	case token == nil:
		r.writePlain("Spotify: ✗ No saved token (run 'trx auth login')\n")
	case token.Valid():
		r.writePlain("Spotify: ✓ Token valid until %s\n", token.Expiry.Format(time.RFC3339))
	case token.RefreshToken != "":
		r.writePlain("Spotify: ⚠ Token expired, will refresh on next use\n")
	default:
		r.writePlain("Spotify: ✗ Token expired (run 'trx auth login')\n")
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state := shared.GenerateState()

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// handleSourceAuthError checks whether err is a token expiration and, if so,
// runs reauthorization so the caller can retry the original operation.
// Returns true when a reauthorization was attempted.
func (r *Runner) handleSourceAuthError(ctx context.Context, err error) (bool, error) {
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, shared.ErrTokenExpired) {
		return false, err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	oauthSrv, ok := r.source.(services.OAuthService)
	if !ok {
		return true, fmt.Errorf("source service does not support reauthorization")
	}

	token, reauthErr := r.doOAuth(oauthSrv, "reauthorization")
	if reauthErr != nil {
		return true, fmt.Errorf("reauthorization failed: %w", reauthErr)
	}

	oauthSrv.SetToken(token)
	r.config.Credentials.Spotify.Update(token)

	if saveErr := shared.SaveConfig(r.config, r.configPath); saveErr != nil {
		r.logger.Warn("failed to persist refreshed tokens", "error", saveErr)
	} else {
		r.writePlainln("✓ Reauthorization successful, tokens saved")
	}

	return true, nil
}

// authCommand groups the Spotify OAuth flow and the status report.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify and inspect auth state",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify via browser OAuth flow",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show proxy health and Spotify token state",
				Action: r.AuthStatus,
			},
		},
	}
}
