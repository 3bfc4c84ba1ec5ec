package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
)

// UserRepository persists source-service account profiles.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if user.ID() == "" {
		user.SetID(shared.GenerateID())
	}
	user.SetSequence(sequence)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO users (id, sequence, service, service_id, display_name, email, country, product, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		user.ID(),
		sequence,
		user.Service(),
		user.ServiceID(),
		user.DisplayName(),
		user.Email(),
		user.Country(),
		user.Product(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `
		SELECT id, sequence, service, service_id, display_name, email, country, product, created_at, updated_at, deleted_at
		FROM users
		WHERE id = ? AND deleted_at IS NULL
	`

	return scanUser(r.db.QueryRow(query, id))
}

// GetByServiceID retrieves a user by service and service account ID
func (r *UserRepository) GetByServiceID(service, serviceID string) (*models.User, error) {
	query := `
		SELECT id, sequence, service, service_id, display_name, email, country, product, created_at, updated_at, deleted_at
		FROM users
		WHERE service = ? AND service_id = ? AND deleted_at IS NULL
	`

	return scanUser(r.db.QueryRow(query, service, serviceID))
}

// Update modifies an existing user in the database
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	query := `
		UPDATE users
		SET display_name = ?, email = ?, country = ?, product = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, user.DisplayName(), user.Email(), user.Country(), user.Product(), now, user.ID())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found or already deleted: %s", user.ID())
	}

	return nil
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE users
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `
		SELECT id, sequence, service, service_id, display_name, email, country, product, created_at, updated_at, deleted_at
		FROM users
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

type userColumns struct {
	id          string
	sequence    int64
	service     string
	serviceID   string
	displayName sql.NullString
	email       sql.NullString
	country     sql.NullString
	product     sql.NullString
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   sql.NullTime
}

func (c *userColumns) build() *models.User {
	user := models.NewUser(c.service, c.serviceID, c.displayName.String)
	user.SetID(c.id)
	user.SetSequence(c.sequence)
	user.SetCreatedAt(c.createdAt)
	user.SetUpdatedAt(c.updatedAt)
	user.SetEmail(c.email.String)
	user.SetCountry(c.country.String)
	user.SetProduct(c.product.String)
	if c.deletedAt.Valid {
		user.SetDeletedAt(&c.deletedAt.Time)
	}
	return user
}

// scanUser scans a single [sql.Row] into a [models.User]
func scanUser(row *sql.Row) (*models.User, error) {
	var c userColumns
	err := row.Scan(&c.id, &c.sequence, &c.service, &c.serviceID, &c.displayName, &c.email, &c.country, &c.product, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return c.build(), nil
}

// scanUserRow scans a row from [sql.Rows] into a [models.User]
func scanUserRow(rows *sql.Rows) (*models.User, error) {
	var c userColumns
	err := rows.Scan(&c.id, &c.sequence, &c.service, &c.serviceID, &c.displayName, &c.email, &c.country, &c.product, &c.createdAt, &c.updatedAt, &c.deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return c.build(), nil
}
