package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/repositories"
)

// Info prints a tool overview: configuration, the Spotify account profile
// and the destination's health. The profile is mirrored into the local
// store so history rows can reference it.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("trx")
	r.writePlain("Config: %s\n", r.configPath)
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Proxy: %s\n\n", r.config.Credentials.YTMusic.ProxyURL)

	if r.source == nil {
		r.writePlain("Spotify: not configured (set credentials and run 'trx auth login')\n")
	} else {
		profile, err := r.source.CurrentUser(ctx)
		if err != nil {
			if reauthed, authErr := r.handleSourceAuthError(ctx, err); reauthed && authErr == nil {
				profile, err = r.source.CurrentUser(ctx)
			}
		}

		if err != nil {
			r.writePlain("Spotify: unavailable (%v)\n", err)
		} else {
			r.writePlain("Spotify account: %s (%s)\n", profile.DisplayName, profile.ID)
			if profile.Email != "" {
				r.writePlain("  Email: %s\n", profile.Email)
			}
			if profile.Country != "" {
				r.writePlain("  Country: %s\n", profile.Country)
			}
			if profile.Product != "" {
				r.writePlain("  Plan: %s\n", profile.Product)
			}
			r.writePlain("  Followers: %d\n", profile.Followers)

			r.storeProfile(profile)
		}
	}

	r.writePlain("\n")

	if r.dest == nil {
		r.writePlain("YouTube Music: not configured\n")
		return nil
	}

	playlists, err := r.dest.GetPlaylists(ctx)
	if err != nil {
		r.writePlain("YouTube Music: unavailable (%v)\n", err)
		return nil
	}
	r.writePlain("YouTube Music: ✓ reachable, %d playlists in library\n", len(playlists))

	return nil
}

// storeProfile upserts the source profile into the local store, best-effort.
func (r *Runner) storeProfile(profile *models.UserProfile) {
	db, err := r.openStore()
	if err != nil {
		r.logger.Warn("local store unavailable, profile not saved", "error", err)
		return
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)

	existing, err := users.GetByServiceID(r.source.Name(), profile.ID)
	if err == nil && existing != nil {
		existing.SetDisplayName(profile.DisplayName)
		existing.SetEmail(profile.Email)
		existing.SetCountry(profile.Country)
		existing.SetProduct(profile.Product)
		if err := users.Update(existing); err != nil {
			r.logger.Warn("failed to update stored profile", "error", err)
		}
		return
	}

	user := models.NewUser(r.source.Name(), profile.ID, profile.DisplayName)
	user.SetEmail(profile.Email)
	user.SetCountry(profile.Country)
	user.SetProduct(profile.Product)
	if err := users.Create(user); err != nil {
		r.logger.Warn("failed to store profile", "error", err)
	}
}

func infoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Show configuration and account overview",
		Action: r.Info,
	}
}
