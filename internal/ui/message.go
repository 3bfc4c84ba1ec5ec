package ui

import (
	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/tasks"
)

// playlistsFetchedMsg carries the source playlist listing into the model.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// tracksFetchedMsg carries one fully loaded source playlist.
type tracksFetchedMsg struct {
	playlist *models.Playlist
	err      error
}

// progressUpdateMsg wraps one engine progress update for the migration view.
type progressUpdateMsg tasks.ProgressUpdate

// migrationCompleteMsg signals the end of a migration run.
type migrationCompleteMsg struct {
	result *models.MigrationResult
	err    error
}
