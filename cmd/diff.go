package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

// Diff compares a source playlist against a destination playlist and
// reports matched, missing and extra tracks.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.StringArg("source")
	destID := cmd.StringArg("dest")

	if sourceID == "" || destID == "" {
		return fmt.Errorf("%w: source and destination playlist IDs", shared.ErrMissingArgument)
	}

	r.logger.Info("diff requested", "source", sourceID, "dest", destID)
	r.writePlain("Comparing playlists...\n\n")

	progressCh, done := r.progressPrinter(10)
	result, err := r.engine.Diff(ctx, progressCh, sourceID, destID)
	close(progressCh)
	<-done

	if err != nil {
		if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed {
			if authErr != nil {
				return authErr
			}
			progressCh, done = r.progressPrinter(10)
			result, err = r.engine.Diff(ctx, progressCh, sourceID, destID)
			close(progressCh)
			<-done
		}
		if err != nil {
			return err
		}
	}

	r.writePlain("\n✓ Source: %s (%d tracks)\n", result.Source.Name, len(result.Source.Tracks))
	r.writePlain("✓ Destination: %s (%d tracks)\n\n", result.Dest.Name, len(result.Dest.Tracks))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", result.MatchedCount)
	r.writePlain("Missing from destination: %d tracks\n", len(result.MissingInDest))
	r.writePlain("Extra in destination: %d tracks\n\n", len(result.ExtraInDest))

	r.writeTrackSection("Missing from destination:", result.MissingInDest)
	r.writeTrackSection("Extra in destination (not in source):", result.ExtraInDest)

	return nil
}

func (r *Runner) writeTrackSection(title string, tracks []models.Track) {
	if len(tracks) == 0 {
		return
	}

	r.writePlain("%s\n", title)
	for i, track := range tracks {
		r.writePlain("  %d. %s - %s", i+1, track.ArtistLine(), track.Name)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n")
	}
	r.writePlain("\n")
}

func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare a Spotify playlist against a YouTube Music playlist",
		ArgsUsage: "<source> <dest>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "source"},
			&cli.StringArg{Name: "dest"},
		},
		Action: r.Diff,
	}
}
