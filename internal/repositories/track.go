package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

// TrackRepository persists cached tracks keyed by (service, service ID).
//
// Tracks are cached as migrations resolve them so later runs can match via
// ISRC without another service round trip.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.StoredTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.StoredTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if track.ID() == "" {
		track.SetID(shared.GenerateID())
	}
	track.SetSequence(sequence)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, service, service_id, title, artist, album, duration_ms, isrc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.ID(),
		sequence,
		track.Service(),
		track.ServiceID(),
		track.Title(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.ISRC(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.StoredTrack, error) {
	query := `
		SELECT id, sequence, service, service_id, title, artist, album, duration_ms, isrc, created_at, updated_at, deleted_at
		FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return scanTrack(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a track by service and service_id
func (r *TrackRepository) GetByServiceID(service, serviceID string) (*models.StoredTrack, error) {
	query := `
		SELECT id, sequence, service, service_id, title, artist, album, duration_ms, isrc, created_at, updated_at, deleted_at
		FROM tracks
		WHERE service = ? AND service_id = ? AND deleted_at IS NULL
	`

	return scanTrack(r.db.QueryRow(query, service, serviceID))
}

// GetByISRC retrieves a track by ISRC code across any service
func (r *TrackRepository) GetByISRC(isrc string) (*models.StoredTrack, error) {
	query := `
		SELECT id, sequence, service, service_id, title, artist, album, duration_ms, isrc, created_at, updated_at, deleted_at
		FROM tracks
		WHERE isrc = ? AND deleted_at IS NULL
		LIMIT 1
	`

	return scanTrack(r.db.QueryRow(query, isrc))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.StoredTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration_ms = ?, isrc = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.DurationMS(),
		track.ISRC(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks
func (r *TrackRepository) List(criteria map[string]any) ([]*models.StoredTrack, error) {
	query := `
		SELECT id, sequence, service, service_id, title, artist, album, duration_ms, isrc, created_at, updated_at, deleted_at
		FROM tracks
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.StoredTrack
	for rows.Next() {
		track, err := scanTrackRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

type trackColumns struct {
	id         string
	sequence   int64
	service    string
	serviceID  string
	title      string
	artist     sql.NullString
	album      sql.NullString
	durationMS int
	isrc       sql.NullString
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  sql.NullTime
}

func (c *trackColumns) build() *models.StoredTrack {
	track := models.NewStoredTrack(c.service, c.serviceID, c.title, c.artist.String)
	track.SetID(c.id)
	track.SetSequence(c.sequence)
	track.SetCreatedAt(c.createdAt)
	track.SetUpdatedAt(c.updatedAt)
	track.SetAlbum(c.album.String)
	track.SetDurationMS(c.durationMS)
	track.SetISRC(c.isrc.String)
	if c.deletedAt.Valid {
		track.SetDeletedAt(&c.deletedAt.Time)
	}
	return track
}

// scanTrack scans a single [sql.Row] into a [models.StoredTrack]
func scanTrack(row *sql.Row) (*models.StoredTrack, error) {
	var c trackColumns
	err := row.Scan(&c.id, &c.sequence, &c.service, &c.serviceID, &c.title, &c.artist, &c.album, &c.durationMS, &c.isrc, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return c.build(), nil
}

// scanTrackRow scans a row from [sql.Rows] into a [models.StoredTrack]
func scanTrackRow(rows *sql.Rows) (*models.StoredTrack, error) {
	var c trackColumns
	err := rows.Scan(&c.id, &c.sequence, &c.service, &c.serviceID, &c.title, &c.artist, &c.album, &c.durationMS, &c.isrc, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return c.build(), nil
}
