package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

// ListPlaylists lists the source account's playlists with optional limit.
func (r *Runner) ListPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing playlists with limit %v", limit)

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

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.SourceID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(p.Public))
		r.writePlain("\n")
	}

	return nil
}

// ListAlbums lists the source account's saved albums. Albums are listed
// only; there is no album migration.
func (r *Runner) ListAlbums(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing albums with limit %v", limit)

	var albums []models.Album
	albums, err := r.source.GetAlbums(ctx)
	if err != nil {
		if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed {
			if authErr != nil {
				return authErr
			}
			if albums, err = r.source.GetAlbums(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if limit > 0 && limit < len(albums) {
		albums = albums[:limit]
	}

	if useJSON {
		return r.writeJSON(albums, pretty)
	}

	r.writePlain("Found %d saved albums:\n\n", len(albums))
	for i, a := range albums {
		r.writePlain("%d. %s - %s\n", i+1, a.ArtistLine(), a.Name)
		if a.ReleaseDate != "" {
			r.writePlain("   Released: %s\n", a.ReleaseDate)
		}
		r.writePlain("   Tracks: %d\n", a.TrackCount)
		r.writePlain("\n")
	}

	return nil
}

func listPlaylistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "list-playlists",
		Usage:  "List Spotify playlists",
		Flags:  listingFlags(),
		Action: r.ListPlaylists,
	}
}

func listAlbumsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "list-albums",
		Usage:  "List saved Spotify albums",
		Flags:  listingFlags(),
		Action: r.ListAlbums,
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Maximum number of entries to show (0 = all)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON instead of text",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}
