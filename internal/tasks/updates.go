package tasks

import (
	"fmt"

	"github.com/desertthunder/trx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	Compare
	FetchHealth
	FetchPlaylists
	FetchSongs
	FetchAlbums
	FetchArtists
	FetchLiked
	FetchHistory
	FetchUploads
	CreatePlaylist
	SearchTracks
	InsertTracks
	ExportPlaylist
	MigratePlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case Compare:
		return "compare"
	case FetchHealth:
		return "fetch_health"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchSongs:
		return "fetch_songs"
	case FetchAlbums:
		return "fetch_albums"
	case FetchArtists:
		return "fetch_artists"
	case FetchLiked:
		return "fetch_liked"
	case FetchHistory:
		return "fetch_history"
	case FetchUploads:
		return "fetch_uploads"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case InsertTracks:
		return "insert_tracks"
	case ExportPlaylist:
		return "export_playlist"
	case MigratePlaylists:
		return "migrate_playlists"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching source playlist (%s)...", name),
	}
}

func fetchDestUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching destination playlist (%s)...", name),
	}
}

func buildDestMapUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: "Building track comparison maps...",
	}
}

func missingTrackUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: "Comparing tracks...",
	}
}

func operationUpdate(endpoint endpointOperation, step int, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   endpoint.phase,
		Step:    step,
		Total:   total,
		Message: endpoint.message,
	}
}

func foundPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, len(pl.Tracks)),
		Data:    pl,
	}
}

func createDestinationUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating destination playlist %q...", name),
	}
}

func playlistCreatedUpdate(destID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created (ID: %s)", destID),
	}
}

func searchTracksUpdate(step, total int, tr *models.Track) ProgressUpdate {
	if tr == nil {
		return ProgressUpdate{
			Phase:   SearchTracks,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks...",
		}
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.ArtistLine(), tr.Name),
	}
}

func insertTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func migrationDoneUpdate(result *models.MigrationResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InsertTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Migrated %d/%d tracks", result.Successful, result.TotalTracks),
		Data:    result,
	}
}

func migratePlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MigratePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Migrating: %s", step, total, name),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
