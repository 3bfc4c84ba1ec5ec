package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/repositories"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/tasks"
)

// MigratePlaylist migrates a single playlist, identified by ID or exact
// name, from Spotify to YouTube Music.
func (r *Runner) MigratePlaylist(ctx context.Context, cmd *cli.Command) error {
	idOrName := cmd.StringArg("playlist")
	if idOrName == "" {
		return fmt.Errorf("%w: playlist name or ID", shared.ErrMissingArgument)
	}

	public, err := visibilityFrom(cmd)
	if err != nil {
		return err
	}

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if r.dest == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	opts := tasks.MigrateOpts{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Public:      public,
	}

	r.logger.Info("starting migration", "playlist", idOrName, "visibility", visibilityLabel(public))
	r.writePlain("Starting playlist migration...\n")
	r.writePlain("Playlist: %s\n\n", idOrName)

	jobs, closeStore := r.attachStore()
	defer closeStore()

	progressCh, done := r.progressPrinter(50)
	result, err := r.engine.Migrate(ctx, progressCh, idOrName, opts)
	close(progressCh)
	<-done

	if err != nil {
		if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed {
			if authErr != nil {
				r.recordMigration(jobs, idOrName, result, authErr)
				return authErr
			}
			progressCh, done = r.progressPrinter(50)
			result, err = r.engine.Migrate(ctx, progressCh, idOrName, opts)
			close(progressCh)
			<-done
		}
	}

	r.recordMigration(jobs, idOrName, result, err)
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Migration Complete!")
	r.writePlain("Source: %s (%d tracks)\n", result.SourceName, result.TotalTracks)
	r.writePlain("Destination: %s (ID: %s)\n", result.DestName, result.DestPlaylistID)
	r.writePlain("Visibility: %s\n", visibilityLabel(public))
	r.writePlain("Success rate: %d/%d (%.1f%%)\n", result.Successful, result.TotalTracks, result.SuccessRate())

	if len(result.Failed) > 0 {
		r.writePlain("\nFailed to match %d tracks:\n", len(result.Failed))
		for _, track := range result.Failed {
			r.writePlain("  - %s - %s\n", track.ArtistLine(), track.Name)
		}
	}

	return nil
}

// MigrateAll migrates every playlist on the source account, up to --limit.
// A single playlist's failure never aborts the rest of the run.
func (r *Runner) MigrateAll(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	skipConfirm := cmd.Bool("yes")

	public, err := visibilityFrom(cmd)
	if err != nil {
		return err
	}

	if r.source == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if r.dest == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

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

	count := len(playlists)
	if limit > 0 && limit < count {
		count = limit
	}
	if count == 0 {
		r.writePlain("No playlists to migrate.\n")
		return nil
	}

	if !skipConfirm {
		r.writePlain("This will migrate %d playlists. Continue? [y/N] ", count)
		if !r.confirm() {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	opts := tasks.MigrateOpts{Public: public}
	jobs, closeStore := r.attachStore()
	defer closeStore()

	r.logger.Info("starting full migration", "playlists", count, "visibility", visibilityLabel(public))

	progressCh, done := r.progressPrinter(50)
	res, err := r.engine.MigrateAll(ctx, progressCh, limit, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	var totalTracks, migratedTracks int
	for _, run := range res.Runs {
		sourceID := run.Playlist.SourceID
		r.recordMigration(jobs, sourceID, run.Result, run.Err)
		if run.Result != nil {
			totalTracks += run.Result.TotalTracks
			migratedTracks += run.Result.Successful
		}
	}

	r.writePlain("\n")
	r.writePlainHeader("Migration Summary")
	for _, run := range res.Runs {
		if run.Err != nil {
			r.writePlain("✗ %s: %v\n", run.Playlist.Name, run.Err)
			continue
		}
		r.writePlain("✓ %s: %d/%d tracks\n", run.Playlist.Name, run.Result.Successful, run.Result.TotalTracks)
	}
	r.writePlain("\nPlaylists: %d completed, %d failed (of %d)\n", res.Completed, res.Failed, res.TotalPlaylists)
	if totalTracks > 0 {
		r.writePlain("Tracks: %d/%d migrated (%.1f%%)\n",
			migratedTracks, totalTracks, float64(migratedTracks)/float64(totalTracks)*100.0)
	}

	return nil
}

// confirm reads one line from the runner's input and accepts y/yes.
func (r *Runner) confirm() bool {
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// attachStore opens the local store for history and track caching. Store
// problems degrade to a warning; migration proceeds without persistence.
// The returned cleanup closes the handle and is always safe to call.
func (r *Runner) attachStore() (*repositories.MigrationRepository, func()) {
	db, err := r.openStore()
	if err != nil {
		r.logger.Warn("local store unavailable, skipping history and cache", "error", err)
		return nil, func() {}
	}

	adapter := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db), r.source.Name(), r.dest.Name())
	r.engine.WithCache(adapter)

	return repositories.NewMigrationRepository(db), func() { db.Close() }
}

// recordMigration persists one run's outcome as a history row. Recording is
// best-effort; a failed write only logs.
func (r *Runner) recordMigration(jobs *repositories.MigrationRepository, sourcePlaylistID string, result *models.MigrationResult, runErr error) {
	if jobs == nil {
		return
	}

	job := models.NewMigrationJob("", r.source.Name(), sourcePlaylistID, r.dest.Name())
	job.Start()

	if result != nil {
		job.SetTargetPlaylistID(result.DestPlaylistID)
		job.RecordResult(result.TotalTracks, result.Successful, len(result.Failed))
	}

	if runErr != nil {
		job.Finish(models.JobStatusFailed, runErr.Error())
	} else {
		job.Finish(models.JobStatusCompleted, "")
	}

	if err := jobs.Create(job); err != nil {
		r.logger.Warn("failed to record migration history", "error", err)
	}
}

// progressPrinter consumes engine progress updates and renders them. The
// returned done channel closes once the progress channel drains.
func (r *Runner) progressPrinter(buffer int) (chan tasks.ProgressUpdate, <-chan struct{}) {
	progressCh := make(chan tasks.ProgressUpdate, buffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource, tasks.FetchDest:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.SearchTracks:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.InsertTracks:
				r.writePlain("\n➕ %s\n", update.Message)
			case tasks.MigratePlaylists:
				r.writePlain("\n▶ %s\n", update.Message)
			case tasks.ExportPlaylist:
				r.writePlain("📦 %s\n", update.Message)
			case tasks.Compare:
				r.writePlain("🔎 %s\n", update.Message)
			}
		}
	}()

	return progressCh, done
}

// visibilityFrom resolves the --public/--private pair. Neither flag returns
// nil, which makes the destination inherit the source playlist's visibility;
// setting both is an error.
func visibilityFrom(cmd *cli.Command) (*bool, error) {
	public := cmd.Bool("public")
	private := cmd.Bool("private")
	switch {
	case public && private:
		return nil, fmt.Errorf("%w: --public and --private are mutually exclusive", shared.ErrInvalidFlag)
	case public:
		value := true
		return &value, nil
	case private:
		value := false
		return &value, nil
	default:
		return nil, nil
	}
}

// visibilityLabel renders the resolved flag pair for logs and summaries.
func visibilityLabel(public *bool) string {
	if public == nil {
		return "inherited from source"
	}
	return shared.VisibilityString(*public)
}

func visibilityFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Create the destination playlist as public",
		},
		&cli.BoolFlag{
			Name:  "private",
			Usage: "Create the destination playlist as private (default)",
		},
	}
}

func migratePlaylistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "migrate-playlist",
		Usage:     "Migrate one playlist from Spotify to YouTube Music",
		ArgsUsage: "<playlist>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
		},
		Flags: append(visibilityFlags(),
			&cli.StringFlag{
				Name:  "name",
				Usage: "Destination playlist name (defaults to the source name)",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Destination playlist description",
			},
		),
		Action: r.MigratePlaylist,
	}
}

func migrateAllCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate-all",
		Usage: "Migrate every Spotify playlist to YouTube Music",
		Flags: append(visibilityFlags(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Migrate at most N playlists (0 = all)",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		),
		Action: r.MigrateAll,
	}
}
