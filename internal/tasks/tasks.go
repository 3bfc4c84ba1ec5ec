package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/retry"
	"github.com/desertthunder/trx/internal/services"
	"github.com/desertthunder/trx/internal/shared"
)

// defaultMigrationNote is the destination playlist description when the
// caller supplies none.
const defaultMigrationNote = "Migrated from Spotify"

// MigrateOpts controls one playlist migration.
type MigrateOpts struct {
	Name        string // Destination playlist name; defaults to the source playlist's name
	Description string // Destination description; defaults to defaultMigrationNote
	Public      *bool  // Destination visibility; nil inherits the source playlist's flag
}

// PlaylistMigration is one playlist's outcome within a MigrateAll run.
type PlaylistMigration struct {
	Playlist models.Playlist
	Result   *models.MigrationResult
	Err      error
}

// MigrateAllResult aggregates a full-library migration.
type MigrateAllResult struct {
	TotalPlaylists int
	Completed      int
	Failed         int
	Runs           []PlaylistMigration
}

// ComparisonResult contains track comparison details between a source and a
// destination playlist.
type ComparisonResult struct {
	Source        *models.Playlist
	Dest          *models.Playlist
	MatchedCount  int            // Tracks found in both
	MissingInDest []models.Track // Tracks in source but not in dest
	ExtraInDest   []models.Track // Tracks in dest but not in source
}

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Data     any
	Error    error
}

// DumpResult contains all data fetched from the API proxy.
type DumpResult struct {
	Health         any              // Health status
	Playlists      any              // Library playlists
	Songs          any              // Library songs
	Albums         any              // Library albums
	Artists        any              // Library artists
	LikedSongs     any              // Liked songs
	History        any              // Listening history
	UploadedSongs  any              // Uploaded songs
	UploadedAlbums any              // Uploaded albums
	Errors         []EndpointResult // Failed endpoint fetches
}

type endpointOperation struct {
	name    string
	path    string
	target  *any
	phase   Phase
	message string
}

// APIClient defines the interface for making API requests to the proxy.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// TrackCacher persists resolved tracks for later lookups. Implemented by
// repositories.TrackCacheAdapter.
type TrackCacher interface {
	CacheTrack(track models.Track) error
}

// MigrationEngine orchestrates playlist migrations from a source catalog to
// a destination catalog. Per-track resolution and destination writes run
// under retry policies; a single failed track never aborts a migration.
type MigrationEngine struct {
	source  services.Source
	dest    services.Destination
	api     APIClient
	matcher *TrackMatcher
	cache   TrackCacher
	logger  *log.Logger

	searchPolicy retry.Policy
	writePolicy  retry.Policy
}

// NewMigrationEngine creates an engine over the given services. api and
// logger may be nil; a nil logger falls back to the shared default.
func NewMigrationEngine(source services.Source, dest services.Destination, api APIClient, logger *log.Logger) *MigrationEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	e := &MigrationEngine{
		source: source,
		dest:   dest,
		api:    api,
		logger: logger,
	}

	if dest != nil {
		e.matcher = NewTrackMatcher(dest)
		e.searchPolicy = retry.DefaultPolicy().WithService(dest.Name())
		e.writePolicy = retry.DefaultPolicy().WithService(dest.Name()).WithInitialDelay(2 * time.Second)
	}

	return e
}

// WithCache attaches a track cache. Resolved tracks are persisted
// best-effort; cache failures never disturb a migration.
func (e *MigrationEngine) WithCache(cache TrackCacher) *MigrationEngine {
	e.cache = cache
	return e
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// LoadPlaylist resolves idOrName against the source: first as a playlist ID,
// then as an exact name among the user's playlists. Authentication failures
// surface immediately; anything else that leaves the identifier unresolved
// is a [shared.PlaylistNotFoundError].
func (e *MigrationEngine) LoadPlaylist(ctx context.Context, idOrName string) (*models.Playlist, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}

	playlist, err := e.source.GetPlaylist(ctx, idOrName)
	if err == nil {
		return playlist, nil
	}
	if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired) {
		return nil, err
	}

	playlists, listErr := e.source.GetPlaylists(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, listErr)
	}

	for _, pl := range playlists {
		if pl.Name == idOrName {
			return e.source.GetPlaylist(ctx, pl.SourceID)
		}
	}

	return nil, &shared.PlaylistNotFoundError{Name: idOrName}
}

// Migrate moves one playlist from the source to the destination.
//
// The destination shell is created first, carrying the source playlist's
// visibility unless opts.Public overrides it. Each track is then resolved
// through the matcher under the search retry policy. Tracks that cannot be
// resolved land in the result's Failed list; everything resolved is inserted
// in a single bulk call at the end. Shell creation and bulk insertion
// failures abort the migration after their own retries.
//
// On context cancellation mid-run the unprocessed tracks are recorded as
// failed and the partial result is returned alongside the context error.
func (e *MigrationEngine) Migrate(ctx context.Context, progress chan<- ProgressUpdate, idOrName string, opts MigrateOpts) (*models.MigrationResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 1, e.source.Name()))

	playlist, err := e.LoadPlaylist(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	total := len(playlist.Tracks)
	e.sendProgress(progress, foundPlaylistUpdate(playlist))

	name := opts.Name
	if name == "" {
		name = playlist.Name
	}
	description := opts.Description
	if description == "" {
		description = defaultMigrationNote
	}
	public := playlist.Public
	if opts.Public != nil {
		public = *opts.Public
	}
	privacy := shared.VisibilityString(public)

	e.sendProgress(progress, createDestinationUpdate(name))

	destID, err := retry.Do(ctx, e.logger, "create_playlist", e.writePolicy, func(ctx context.Context) (string, error) {
		return e.dest.CreatePlaylist(ctx, name, description, privacy)
	})
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, playlistCreatedUpdate(destID))

	result := &models.MigrationResult{
		SourceName:     e.source.Name(),
		DestName:       e.dest.Name(),
		DestPlaylistID: destID,
		TotalTracks:    total,
		Failed:         []models.Track{},
		Skipped:        []models.Track{},
	}

	videoIDs := make([]string, 0, total)

	for i, track := range playlist.Tracks {
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, playlist.Tracks[i:]...)
			return result, ctx.Err()
		}

		e.sendProgress(progress, searchTracksUpdate(i+1, total, &track))

		destTrackID, err := retry.Do(ctx, e.logger, "search_track", e.searchPolicy, func(ctx context.Context) (string, error) {
			return e.matcher.Match(ctx, track)
		})
		if err != nil {
			e.logger.Warn("track not migrated", "track", track.Name, "artist", track.PrimaryArtist(), "err", err)
			result.Failed = append(result.Failed, track)
			continue
		}

		playlist.Tracks[i].DestID = destTrackID
		videoIDs = append(videoIDs, destTrackID)
		result.Successful++
		e.cacheTrack(playlist.Tracks[i])
	}

	if len(videoIDs) > 0 {
		e.sendProgress(progress, insertTracksUpdate(len(videoIDs)))

		err := retry.DoErr(ctx, e.logger, "add_tracks", e.writePolicy, func(ctx context.Context) error {
			return e.dest.AddPlaylistItems(ctx, destID, videoIDs)
		})
		if err != nil {
			return nil, err
		}
	}

	e.sendProgress(progress, migrationDoneUpdate(result))
	return result, nil
}

// MigrateAll migrates every source playlist sequentially. limit > 0 caps how
// many playlists are attempted. A playlist that fails is recorded and the
// run moves on; only listing failures and context cancellation abort.
func (e *MigrationEngine) MigrateAll(ctx context.Context, progress chan<- ProgressUpdate, limit int, opts MigrateOpts) (*MigrateAllResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}

	playlists, err := e.source.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlists: %v", shared.ErrAPIRequest, err)
	}
	if limit > 0 && len(playlists) > limit {
		playlists = playlists[:limit]
	}

	result := &MigrateAllResult{
		TotalPlaylists: len(playlists),
		Runs:           make([]PlaylistMigration, 0, len(playlists)),
	}

	// Name overrides make no sense across a whole library; each playlist
	// keeps its own name.
	runOpts := opts
	runOpts.Name = ""

	for i, pl := range playlists {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.sendProgress(progress, migratePlaylistUpdate(i+1, len(playlists), pl.Name))

		run := PlaylistMigration{Playlist: pl}
		run.Result, run.Err = e.Migrate(ctx, progress, pl.SourceID, runOpts)
		if run.Err != nil {
			result.Failed++
			e.logger.Error("playlist migration failed", "playlist", pl.Name, "err", run.Err)
		} else {
			result.Completed++
		}
		result.Runs = append(result.Runs, run)
	}

	return result, nil
}

// cacheTrack persists a resolved track when a cache is attached. Failures
// are logged at debug and otherwise ignored.
func (e *MigrationEngine) cacheTrack(track models.Track) {
	if e.cache == nil {
		return
	}
	if err := e.cache.CacheTrack(track); err != nil {
		e.logger.Debug("track cache write failed", "track", track.Name, "err", err)
	}
}

// Diff compares a source playlist against a destination playlist and
// identifies differences. Tracks match by ISRC when both sides carry one,
// otherwise by normalized title and primary artist.
func (e *MigrationEngine) Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*ComparisonResult, error) {
	if e.source == nil || e.dest == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, e.source.Name()))
	source, err := e.source.GetPlaylist(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch source playlist: %v", shared.ErrPlaylistNotFound, err)
	}

	e.sendProgress(progress, fetchDestUpdate(2, 2, e.dest.Name()))
	dest, err := e.dest.GetPlaylist(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch destination playlist: %v", shared.ErrPlaylistNotFound, err)
	}

	result := &ComparisonResult{
		Source: source,
		Dest:   dest,
	}

	e.sendProgress(progress, buildDestMapUpdate(1, 2))
	destTrackMap := make(map[string]models.Track)
	destISRCMap := make(map[string]models.Track)

	for _, track := range dest.Tracks {
		destTrackMap[shared.NormalizeTrackKey(track.Name, track.PrimaryArtist())] = track
		if track.ISRC != "" {
			destISRCMap[track.ISRC] = track
		}
	}

	e.sendProgress(progress, missingTrackUpdate(2, 2))
	for _, srcTrack := range source.Tracks {
		if diffMatched(srcTrack, destISRCMap, destTrackMap) {
			result.MatchedCount++
		} else {
			result.MissingInDest = append(result.MissingInDest, srcTrack)
		}
	}

	sourceTrackMap := make(map[string]models.Track)
	sourceISRCMap := make(map[string]models.Track)

	for _, track := range source.Tracks {
		sourceTrackMap[shared.NormalizeTrackKey(track.Name, track.PrimaryArtist())] = track
		if track.ISRC != "" {
			sourceISRCMap[track.ISRC] = track
		}
	}

	for _, destTrack := range dest.Tracks {
		if !diffMatched(destTrack, sourceISRCMap, sourceTrackMap) {
			result.ExtraInDest = append(result.ExtraInDest, destTrack)
		}
	}

	return result, nil
}

// diffMatched reports whether track appears in the other playlist's maps.
func diffMatched(track models.Track, isrcMap, trackMap map[string]models.Track) bool {
	if track.ISRC != "" {
		if _, found := isrcMap[track.ISRC]; found {
			return true
		}
	}
	_, found := trackMap[shared.NormalizeTrackKey(track.Name, track.PrimaryArtist())]
	return found
}

// Dump fetches all data from the API proxy.
func (e *MigrationEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{
		Errors: []EndpointResult{},
	}

	endpoints := []endpointOperation{
		{name: "health", path: "/health", target: &result.Health, phase: FetchHealth, message: "Fetching health status..."},
		{name: "playlists", path: "/api/library/playlists", target: &result.Playlists, phase: FetchPlaylists, message: "Fetching playlists..."},
		{name: "songs", path: "/api/library/songs", target: &result.Songs, phase: FetchSongs, message: "Fetching songs..."},
		{name: "albums", path: "/api/library/albums", target: &result.Albums, phase: FetchAlbums, message: "Fetching albums..."},
		{name: "artists", path: "/api/library/artists", target: &result.Artists, phase: FetchArtists, message: "Fetching artists..."},
		{name: "liked_songs", path: "/api/library/liked-songs", target: &result.LikedSongs, phase: FetchLiked, message: "Fetching liked songs..."},
		{name: "history", path: "/api/library/history", target: &result.History, phase: FetchHistory, message: "Fetching history..."},
		{name: "uploaded_songs", path: "/api/uploads/songs", target: &result.UploadedSongs, phase: FetchUploads, message: "Fetching uploaded songs..."},
		{name: "uploaded_albums", path: "/api/uploads/albums", target: &result.UploadedAlbums, phase: FetchUploads, message: "Fetching uploaded albums..."},
	}

	totalSteps := len(endpoints)

	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, totalSteps))

		resp, err := e.api.Get(ctx, endpoint.path)
		if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			} else {
				errMsg = fmt.Sprintf("status %d", resp.StatusCode)
			}
			result.Errors = append(result.Errors, EndpointResult{
				Endpoint: endpoint.path,
				Error:    fmt.Errorf("%s", errMsg),
			})
		} else {
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
