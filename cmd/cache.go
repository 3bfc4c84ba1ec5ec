package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/repositories"
	"github.com/desertthunder/trx/internal/shared"
)

// CachePlaylist fetches a playlist and stores it with its tracks in the
// local database. The cache is a lookup aid only; it never feeds matching.
func (r *Runner) CachePlaylist(ctx context.Context, cmd *cli.Command) error {
	idOrName := cmd.StringArg("playlist")
	if idOrName == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}
	serviceName := cmd.String("service")

	var playlist *models.Playlist
	var err error

	switch serviceName {
	case "spotify", "":
		if r.source == nil {
			return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
		}
		serviceName = r.source.Name()
		playlist, err = r.engine.LoadPlaylist(ctx, idOrName)
		if err != nil {
			if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed {
				if authErr != nil {
					return authErr
				}
				playlist, err = r.engine.LoadPlaylist(ctx, idOrName)
			}
		}
	case "ytmusic", "youtube":
		if r.dest == nil {
			return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
		}
		serviceName = r.dest.Name()
		playlist, err = r.dest.GetPlaylist(ctx, idOrName)
	default:
		return fmt.Errorf("%w: unknown service %q", shared.ErrInvalidFlag, serviceName)
	}

	if err != nil {
		return err
	}

	r.logger.Infof("fetched playlist: %s (%d tracks)", playlist.Name, len(playlist.Tracks))

	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists := repositories.NewPlaylistRepository(db)
	serviceID := playlist.SourceID
	if serviceID == "" {
		serviceID = playlist.DestID
	}

	existing, err := playlists.GetByServiceID(serviceName, serviceID)
	if err == nil && existing != nil {
		existing.SetName(playlist.Name)
		existing.SetDescription(playlist.Description)
		existing.SetTrackCount(len(playlist.Tracks))
		existing.SetPublic(playlist.Public)
		if err := playlists.Update(existing); err != nil {
			return fmt.Errorf("failed to update cached playlist: %w", err)
		}
	} else {
		stored := models.NewStoredPlaylist(serviceName, serviceID, playlist.Name)
		stored.SetDescription(playlist.Description)
		stored.SetTrackCount(len(playlist.Tracks))
		stored.SetPublic(playlist.Public)
		if err := playlists.Create(stored); err != nil {
			return fmt.Errorf("failed to cache playlist: %w", err)
		}
	}

	adapter := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db), serviceName, serviceName)
	cached := 0
	for _, track := range playlist.Tracks {
		if track.SourceID == "" && track.DestID == "" {
			continue
		}
		if err := adapter.CacheTrack(track); err != nil {
			r.logger.Warn("failed to cache track", "track", track.Name, "error", err)
			continue
		}
		cached++
	}

	r.writePlainln("✓ Playlist cached: %s", playlist.Name)
	r.writePlainln("  Tracks cached: %d/%d", cached, len(playlist.Tracks))

	return nil
}

// cacheCommand handles opt-in playlist and track caching
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Cache playlists and tracks locally",
		Commands: []*cli.Command{
			{
				Name:      "playlist",
				Usage:     "Cache a playlist and its tracks",
				ArgsUsage: "<playlist>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Service to fetch from (spotify or ytmusic)",
						Value:   "spotify",
					},
				},
				Action: r.CachePlaylist,
			},
		},
	}
}
