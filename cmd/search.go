package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/shared"
)

// Search runs a song search against YouTube Music and prints the
// candidates in ranking order.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	if r.dest == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("searching for %q", query)

	results, err := r.dest.SearchTracks(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(results, true)
	}

	if len(results) == 0 {
		r.writePlain("No results for %q\n", query)
		return nil
	}

	r.writePlain("Found %d results:\n\n", len(results))
	for i, result := range results {
		r.writePlain("%d. %s - %s\n", i+1, result.ArtistLine(), result.Title)
		if result.Album != "" {
			r.writePlain("   Album: %s\n", result.Album)
		}
		r.writePlain("   ID: %s\n\n", result.ID)
	}

	return nil
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search YouTube Music for a song",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of candidates",
				Value:   5,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON instead of text",
			},
		},
		Action: r.Search,
	}
}
