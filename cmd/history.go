package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/repositories"
)

// History lists past migration runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	status := cmd.String("status")
	useJSON := cmd.Bool("json")

	db, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	jobs := repositories.NewMigrationRepository(db)

	runs, err := jobs.List(map[string]any{"status": status})
	if err != nil {
		return err
	}

	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}

	if len(runs) == 0 {
		r.writePlain("No migration history yet. Run 'trx migrate-playlist <name>' first.\n")
		return nil
	}

	if useJSON {
		type historyRow struct {
			ID               string     `json:"id"`
			SourceService    string     `json:"source_service"`
			SourcePlaylistID string     `json:"source_playlist_id"`
			TargetService    string     `json:"target_service"`
			TargetPlaylistID string     `json:"target_playlist_id,omitempty"`
			Status           string     `json:"status"`
			TracksTotal      int        `json:"tracks_total"`
			TracksMigrated   int        `json:"tracks_migrated"`
			TracksFailed     int        `json:"tracks_failed"`
			ErrorMessage     string     `json:"error_message,omitempty"`
			StartedAt        *time.Time `json:"started_at,omitempty"`
			CompletedAt      *time.Time `json:"completed_at,omitempty"`
		}

		rows := make([]historyRow, 0, len(runs))
		for _, job := range runs {
			rows = append(rows, historyRow{
				ID:               job.ID(),
				SourceService:    job.SourceService(),
				SourcePlaylistID: job.SourcePlaylistID(),
				TargetService:    job.TargetService(),
				TargetPlaylistID: job.TargetPlaylistID(),
				Status:           job.Status(),
				TracksTotal:      job.TracksTotal(),
				TracksMigrated:   job.TracksMigrated(),
				TracksFailed:     job.TracksFailed(),
				ErrorMessage:     job.ErrorMessage(),
				StartedAt:        job.StartedAt(),
				CompletedAt:      job.CompletedAt(),
			})
		}
		return r.writeJSON(rows, true)
	}

	r.writePlain("Found %d migration runs:\n\n", len(runs))
	for i, job := range runs {
		symbol := "✓"
		if job.Status() != models.JobStatusCompleted {
			symbol = "✗"
		}
		r.writePlain("%d. %s %s → %s  [%s]\n", i+1, symbol, job.SourceService(), job.TargetService(), job.Status())
		r.writePlain("   Playlist: %s", job.SourcePlaylistID())
		if job.TargetPlaylistID() != "" {
			r.writePlain(" → %s", job.TargetPlaylistID())
		}
		r.writePlain("\n")
		r.writePlain("   Tracks: %d/%d migrated, %d failed\n", job.TracksMigrated(), job.TracksTotal(), job.TracksFailed())
		if job.ErrorMessage() != "" {
			r.writePlain("   Error: %s\n", job.ErrorMessage())
		}
		if started := job.StartedAt(); started != nil {
			r.writePlain("   Started: %s", started.Format(time.RFC3339))
			if completed := job.CompletedAt(); completed != nil {
				r.writePlain("  (took %s)", completed.Sub(*started).Round(time.Second))
			}
			r.writePlain("\n")
		}
		r.writePlain("\n")
	}

	return nil
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past migration runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Show at most N runs (0 = all)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by status (pending, running, completed, failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON instead of text",
			},
		},
		Action: r.History,
	}
}
