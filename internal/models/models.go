package models

import (
	"strings"
	"time"

	"github.com/desertthunder/trx/internal/shared"
)

// Model defines the base interface for all persistent models in the migration service.
// Implementations include User, StoredPlaylist, StoredTrack and MigrationJob.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track is a single song as seen by a catalog service.
//
// Artists is ordered; the first entry is the primary artist. DestID is the
// only field mutated after construction: the migration engine sets it once a
// destination match is found.
type Track struct {
	SourceID   string   `json:"source_id"`
	DestID     string   `json:"dest_id,omitempty"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
	ISRC       string   `json:"isrc,omitempty"`
}

// SearchQuery builds the destination search string: the track name followed
// by the comma-joined artist list.
func (t Track) SearchQuery() string {
	return t.Name + " " + t.ArtistLine()
}

// ArtistLine joins the artists with ", " for display and export.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// PrimaryArtist returns the first artist, or "" for an artist-less track.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Duration renders DurationMS as m:ss.
func (t Track) Duration() string {
	return shared.FormatDuration(t.DurationMS)
}

// SearchResult is one destination search candidate, in ranking order.
type SearchResult struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
}

// ArtistLine joins the candidate's artists with spaces for matching.
func (r SearchResult) ArtistLine() string {
	return strings.Join(r.Artists, " ")
}

// Playlist is an ordered collection of tracks on a catalog service.
//
// Listings carry TrackCount only; a full fetch populates Tracks. Public may
// be overridden by the caller before migration to control destination
// visibility.
type Playlist struct {
	SourceID    string  `json:"source_id"`
	DestID      string  `json:"dest_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Owner       string  `json:"owner,omitempty"`
	Public      bool    `json:"public"`
	TrackCount  int     `json:"track_count"`
	Tracks      []Track `json:"tracks,omitempty"`
}

// Album is a saved album on the source service. Albums are listed but never
// migrated.
type Album struct {
	SourceID    string   `json:"source_id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	ReleaseDate string   `json:"release_date,omitempty"`
	TrackCount  int      `json:"track_count"`
	Tracks      []Track  `json:"tracks,omitempty"`
}

// ArtistLine joins the album artists with ", ".
func (a Album) ArtistLine() string {
	return strings.Join(a.Artists, ", ")
}

// UserProfile is the source account profile reported by the info command.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	Followers   int    `json:"followers"`
}

// MigrationResult summarizes one playlist migration. It is a return value
// only and is never persisted; history rows are written separately by the
// CLI layer.
//
// Skipped is reserved for a future dedup feature and is always empty.
// Successful + len(Failed) + len(Skipped) always equals TotalTracks.
type MigrationResult struct {
	SourceName     string  `json:"source_name"`
	DestName       string  `json:"dest_name"`
	DestPlaylistID string  `json:"dest_playlist_id,omitempty"`
	TotalTracks    int     `json:"total_tracks"`
	Successful     int     `json:"successful_tracks"`
	Failed         []Track `json:"failed_tracks"`
	Skipped        []Track `json:"skipped_tracks"`
}

// SuccessRate returns the percentage of tracks migrated, 0.0 for an empty
// playlist.
func (r *MigrationResult) SuccessRate() float64 {
	if r.TotalTracks == 0 {
		return 0.0
	}
	return float64(r.Successful) / float64(r.TotalTracks) * 100.0
}
