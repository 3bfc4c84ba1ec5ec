package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

// PlaylistRepository persists playlist snapshots keyed by (service, service ID).
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new [models.StoredPlaylist] into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.StoredPlaylist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if playlist.ID() == "" {
		playlist.SetID(shared.GenerateID())
	}
	playlist.SetSequence(sequence)

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		playlist.ID(),
		sequence,
		playlist.Service(),
		playlist.ServiceID(),
		playlist.Name(),
		playlist.Description(),
		playlist.TrackCount(),
		playlist.Public(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.StoredPlaylist, error) {
	query := `
		SELECT id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	return scanPlaylist(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a playlist by service and service_id
func (r *PlaylistRepository) GetByServiceID(service, serviceID string) (*models.StoredPlaylist, error) {
	query := `
		SELECT id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE service = ? AND service_id = ? AND deleted_at IS NULL
	`

	return scanPlaylist(r.db.QueryRow(query, service, serviceID))
}

// Update modifies an existing playlist in the database
func (r *PlaylistRepository) Update(playlist *models.StoredPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, description = ?, track_count = ?, public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		playlist.Name(),
		playlist.Description(),
		playlist.TrackCount(),
		playlist.Public(),
		now,
		playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", playlist.ID())
	}

	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all playlists matching the given criteria, excluding soft-deleted playlists
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.StoredPlaylist, error) {
	query := `
		SELECT id, sequence, service, service_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.StoredPlaylist
	for rows.Next() {
		playlist, err := scanPlaylistRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

type playlistColumns struct {
	id          string
	sequence    int64
	service     string
	serviceID   string
	name        string
	description sql.NullString
	trackCount  int
	public      bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   sql.NullTime
}

func (c *playlistColumns) build() *models.StoredPlaylist {
	playlist := models.NewStoredPlaylist(c.service, c.serviceID, c.name)
	playlist.SetID(c.id)
	playlist.SetSequence(c.sequence)
	playlist.SetCreatedAt(c.createdAt)
	playlist.SetUpdatedAt(c.updatedAt)
	playlist.SetDescription(c.description.String)
	playlist.SetTrackCount(c.trackCount)
	playlist.SetPublic(c.public)
	if c.deletedAt.Valid {
		playlist.SetDeletedAt(&c.deletedAt.Time)
	}
	return playlist
}

// scanPlaylist scans a single [sql.Row] into a [models.StoredPlaylist]
func scanPlaylist(row *sql.Row) (*models.StoredPlaylist, error) {
	var c playlistColumns
	err := row.Scan(&c.id, &c.sequence, &c.service, &c.serviceID, &c.name, &c.description, &c.trackCount, &c.public, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return c.build(), nil
}

// scanPlaylistRow scans a row from [sql.Rows] into a [models.StoredPlaylist]
func scanPlaylistRow(rows *sql.Rows) (*models.StoredPlaylist, error) {
	var c playlistColumns
	err := rows.Scan(&c.id, &c.sequence, &c.service, &c.serviceID, &c.name, &c.description, &c.trackCount, &c.public, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return c.build(), nil
}
