package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

// MigrationRepository persists [models.MigrationJob] records for run history.
//
// Jobs move through pending, running, and a terminal completed or failed
// status. Listing returns newest first.
type MigrationRepository struct {
	db *sql.DB
}

// NewMigrationRepository creates a new MigrationRepository with the given database connection
func NewMigrationRepository(db *sql.DB) *MigrationRepository {
	return &MigrationRepository{db: db}
}

// nullable converts empty strings to nil so optional columns stay NULL.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// Create inserts a new migration job into the database with generated ID and sequence
func (r *MigrationRepository) Create(migration *models.MigrationJob) error {
	sequence, err := NextSequence(r.db, "migrations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if migration.ID() == "" {
		migration.SetID(shared.GenerateID())
	}
	migration.SetSequence(sequence)

	if err := migration.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO migrations (
			id, sequence, user_id, source_service, source_playlist_id,
			target_service, target_playlist_id, status, tracks_total,
			tracks_migrated, tracks_failed, error_message, started_at,
			completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		migration.ID(),
		sequence,
		nullable(migration.UserID()),
		migration.SourceService(),
		nullable(migration.SourcePlaylistID()),
		migration.TargetService(),
		nullable(migration.TargetPlaylistID()),
		migration.Status(),
		migration.TracksTotal(),
		migration.TracksMigrated(),
		migration.TracksFailed(),
		nullable(migration.ErrorMessage()),
		migration.StartedAt(),
		migration.CompletedAt(),
		migration.CreatedAt(),
		migration.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert migration: %w", err)
	}

	return nil
}

// Get retrieves a migration job by ID, excluding soft-deleted migrations
func (r *MigrationRepository) Get(id string) (*models.MigrationJob, error) {
	query := `
		SELECT
			id, sequence, user_id, source_service, source_playlist_id,
			target_service, target_playlist_id, status, tracks_total,
			tracks_migrated, tracks_failed, error_message, started_at,
			completed_at, created_at, updated_at, deleted_at
		FROM migrations
		WHERE id = ? AND deleted_at IS NULL
	`

	return scanMigration(r.db.QueryRow(query, id))
}

// Update modifies an existing migration job in the database
func (r *MigrationRepository) Update(migration *models.MigrationJob) error {
	if err := migration.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	migration.SetUpdatedAt(now)

	query := `
		UPDATE migrations
		SET target_playlist_id = ?, status = ?, tracks_total = ?,
			tracks_migrated = ?, tracks_failed = ?, error_message = ?,
			started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		nullable(migration.TargetPlaylistID()),
		migration.Status(),
		migration.TracksTotal(),
		migration.TracksMigrated(),
		migration.TracksFailed(),
		nullable(migration.ErrorMessage()),
		migration.StartedAt(),
		migration.CompletedAt(),
		now,
		migration.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update migration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("migration not found or already deleted: %s", migration.ID())
	}

	return nil
}

// Delete soft-deletes a migration job by ID
func (r *MigrationRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE migrations
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete migration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("migration not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all migration jobs matching the given criteria, excluding
// soft-deleted migrations. Results are ordered newest first.
func (r *MigrationRepository) List(criteria map[string]any) ([]*models.MigrationJob, error) {
	query := `
		SELECT
			id, sequence, user_id, source_service, source_playlist_id,
			target_service, target_playlist_id, status, tracks_total,
			tracks_migrated, tracks_failed, error_message, started_at,
			completed_at, created_at, updated_at, deleted_at
		FROM migrations
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if sourceService, ok := criteria["source_service"].(string); ok && sourceService != "" {
		query += " AND source_service = ?"
		args = append(args, sourceService)
	}

	if targetService, ok := criteria["target_service"].(string); ok && targetService != "" {
		query += " AND target_service = ?"
		args = append(args, targetService)
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []*models.MigrationJob
	for rows.Next() {
		migration, err := scanMigrationRow(rows)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return migrations, nil
}

type migrationColumns struct {
	id               string
	sequence         int64
	userID           sql.NullString
	sourceService    string
	sourcePlaylistID sql.NullString
	targetService    string
	targetPlaylistID sql.NullString
	status           string
	tracksTotal      int
	tracksMigrated   int
	tracksFailed     int
	errorMessage     sql.NullString
	startedAt        sql.NullTime
	completedAt      sql.NullTime
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        sql.NullTime
}

func (c *migrationColumns) dest() []any {
	return []any{
		&c.id, &c.sequence, &c.userID, &c.sourceService, &c.sourcePlaylistID,
		&c.targetService, &c.targetPlaylistID, &c.status, &c.tracksTotal,
		&c.tracksMigrated, &c.tracksFailed, &c.errorMessage, &c.startedAt,
		&c.completedAt, &c.createdAt, &c.updatedAt, &c.deletedAt,
	}
}

func (c *migrationColumns) build() *models.MigrationJob {
	migration := models.NewMigrationJob(c.userID.String, c.sourceService, c.sourcePlaylistID.String, c.targetService)
	migration.SetID(c.id)
	migration.SetSequence(c.sequence)
	migration.SetCreatedAt(c.createdAt)
	migration.SetUpdatedAt(c.updatedAt)
	migration.SetTargetPlaylistID(c.targetPlaylistID.String)
	migration.SetStatus(c.status)
	migration.SetTracksTotal(c.tracksTotal)
	migration.SetTracksMigrated(c.tracksMigrated)
	migration.SetTracksFailed(c.tracksFailed)
	migration.SetErrorMessage(c.errorMessage.String)
	if c.startedAt.Valid {
		migration.SetStartedAt(&c.startedAt.Time)
	}
	if c.completedAt.Valid {
		migration.SetCompletedAt(&c.completedAt.Time)
	}
	if c.deletedAt.Valid {
		migration.SetDeletedAt(&c.deletedAt.Time)
	}
	return migration
}

// scanMigration scans a single [sql.Row] into a [models.MigrationJob]
func scanMigration(row *sql.Row) (*models.MigrationJob, error) {
	var c migrationColumns
	err := row.Scan(c.dest()...)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("migration not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration: %w", err)
	}
	return c.build(), nil
}

// scanMigrationRow scans a row from [sql.Rows] into a [models.MigrationJob]
func scanMigrationRow(rows *sql.Rows) (*models.MigrationJob, error) {
	var c migrationColumns
	err := rows.Scan(c.dest()...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migration: %w", err)
	}
	return c.build(), nil
}
