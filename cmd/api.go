package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/tasks"
)

// APIGet makes a direct GET request to the proxy
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: request path", shared.ErrMissingArgument)
	}
	pretty := cmd.Bool("pretty")

	if r.api == nil {
		return fmt.Errorf("%w: proxy client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the proxy
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: request path", shared.ErrMissingArgument)
	}
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	if r.api == nil {
		return fmt.Errorf("%w: proxy client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIDump fetches and displays the full proxy state.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	if r.api == nil {
		return fmt.Errorf("%w: proxy client not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("dumping API state")
	r.writePlain("Fetching proxy state...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("📊 %s\n", update.Message)
		}
	}()

	dump, err := r.engine.Dump(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Dump complete\n\n")

	if len(dump.Errors) > 0 {
		r.writePlain("Failed endpoints:\n")
		for _, res := range dump.Errors {
			r.writePlain("  ✗ %s: %v\n", res.Endpoint, res.Error)
		}
		r.writePlain("\n")
	}

	payload := map[string]any{
		"health":          dump.Health,
		"playlists":       dump.Playlists,
		"songs":           dump.Songs,
		"albums":          dump.Albums,
		"artists":         dump.Artists,
		"liked_songs":     dump.LikedSongs,
		"history":         dump.History,
		"uploaded_songs":  dump.UploadedSongs,
		"uploaded_albums": dump.UploadedAlbums,
	}

	if save {
		saveFile := "api_dump.json"
		data, err := shared.MarshalJSON(payload, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(payload, pretty)
}

// apiCommand handles direct proxy API calls and the full state dump.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the YouTube Music proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the proxy, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Full proxy state dump (cached playlists, songs, etc)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}
