package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/formatter"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/tasks"
)

// ExportPlaylist writes one playlist to disk in the requested format.
func (r *Runner) ExportPlaylist(ctx context.Context, cmd *cli.Command) error {
	idOrName := cmd.StringArg("playlist")
	if idOrName == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}
	format := cmd.String("format")
	output := cmd.String("output")

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	playlist, err := r.engine.LoadPlaylist(ctx, idOrName)
	if err != nil {
		if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed {
			if authErr != nil {
				return authErr
			}
			if playlist, err = r.engine.LoadPlaylist(ctx, idOrName); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	r.logger.Infof("exporting playlist %v as %v", playlist.Name, format)

	switch format {
	case "csv":
		res, err := formatter.WriteCSVExport(playlist, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s\n", playlist.Name)
		r.writePlain("  Tracks: %s\n", res.TracksFile)
		r.writePlain("  Metadata: %s\n", res.MetadataFile)
	case "markdown", "md":
		res, err := formatter.WriteMarkdownExport(playlist, output, cmd.String("cover-url"))
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s to %s\n", playlist.Name, res.Directory)
		for _, file := range res.Files {
			r.writePlain("  %s\n", file)
		}
	case "txt", "text":
		file, err := formatter.WriteTextExport(playlist, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s to %s\n", playlist.Name, file)
	case "json", "":
		if output == "" {
			output = fmt.Sprintf("%s.json", playlist.SourceID)
		}
		data, err := shared.MarshalJSON(playlist, true)
		if err != nil {
			return fmt.Errorf("failed to marshal playlist: %w", err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		r.writePlain("✓ Exported %s to %s\n", playlist.Name, output)
	default:
		return fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidFlag, format)
	}

	return nil
}

// ExportBulk exports several playlists concurrently with a worker pool and
// writes a manifest summarizing the run.
func (r *Runner) ExportBulk(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputDir := cmd.String("output-dir")
	ids := cmd.StringSlice("id")

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if len(ids) == 0 {
		playlists, err := r.source.GetPlaylists(ctx)
		if err != nil {
			if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed {
				if authErr != nil {
					return authErr
				}
				if playlists, err = r.source.GetPlaylists(ctx); err != nil {
					return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
				}
			} else {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		}
		for _, p := range playlists {
			ids = append(ids, p.SourceID)
		}
	}

	if len(ids) == 0 {
		r.writePlain("No playlists to export.\n")
		return nil
	}

	r.writePlain("Exporting %d playlists...\n\n", len(ids))

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: r.config.Migration.Workers,
		RateLimit:  r.config.Migration.RateLimit,
	}

	progressCh, done := r.progressPrinter(50)
	result, err := r.engine.BulkExport(ctx, progressCh, r.source, ids, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Output directory: %s\n", result.OutputDirectory)
	r.writePlain("Successful: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	if result.FailedExports > 0 {
		r.writePlain("Failed: %d\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %v\n", res.PlaylistName, res.Error)
			}
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	return nil
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists to files",
		Commands: []*cli.Command{
			{
				Name:      "playlist",
				Usage:     "Export one playlist",
				ArgsUsage: "<playlist>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (file or directory, format dependent)",
					},
					&cli.StringFlag{
						Name:  "cover-url",
						Usage: "Cover image URL to download for markdown exports",
					},
				},
				Action: r.ExportPlaylist,
			},
			{
				Name:  "bulk",
				Usage: "Export many playlists with a worker pool",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown, txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "Output directory (default spotify_export_{epoch})",
					},
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Playlist ID to export (repeatable; default: all playlists)",
					},
				},
				Action: r.ExportBulk,
			},
		},
	}
}
