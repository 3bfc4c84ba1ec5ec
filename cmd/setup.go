package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/shared"
)

// SetupAuth configures YouTube Music authentication from browser headers.
//
// Accepts a "Copy as cURL" command, forwards the raw headers to the proxy's
// browser-setup endpoint and writes the resulting browser.json artifact.
func (r *Runner) SetupAuth(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	if r.api == nil {
		return fmt.Errorf("%w: proxy client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("parsing cURL command for YouTube Music headers")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	headersRaw := curlHeaders.ToHeadersRaw()

	r.logger.Debug("generated headers_raw", "length", len(headersRaw))
	r.logger.Info("calling YouTube Music proxy setup endpoint")

	setupResp, err := r.api.SetupBrowser(ctx, headersRaw)
	if err != nil {
		return fmt.Errorf("setup request failed: %w", err)
	}

	if !setupResp.Success {
		return fmt.Errorf("setup failed: %s", setupResp.Message)
	}

	r.logger.Info("setup successful", "message", setupResp.Message)

	if outputPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(homeDir, ".trx", "browser.json")
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	authJSON, err := json.MarshalIndent(setupResp.AuthContent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal auth content: %w", err)
	}

	if err := os.WriteFile(outputPath, authJSON, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	r.logger.Info("browser.json saved", "path", outputPath)

	if r.dest != nil {
		if err := r.dest.Authenticate(ctx, map[string]string{"auth_file": outputPath}); err != nil {
			r.logger.Warn("new auth artifact not usable yet", "error", err)
		}
	}

	r.writePlain("✓ YouTube Music authentication configured successfully\n")
	r.writePlain("Auth file saved to: %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Update config.toml with: credentials.ytmusic.headers_path = \"%s\"\n", outputPath)
	r.writePlain("2. Run 'trx search \"your song\"' to test authentication\n")

	return nil
}

// SetupDatabase initializes the local SQLite store and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

func setupAuthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup-auth",
		Usage: "Configure YouTube Music auth from a browser cURL command",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "curl",
				Usage: "cURL command copied from the browser",
			},
			&cli.StringFlag{
				Name:  "curl-file",
				Usage: "Path to a file containing the cURL command",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write browser.json (default ~/.trx/browser.json)",
			},
		},
		Action: r.SetupAuth,
	}
}

func setupDatabaseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup-db",
		Usage: "Initialize the local database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Action: r.SetupDatabase,
	}
}
