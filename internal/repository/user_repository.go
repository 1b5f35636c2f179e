package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// UserRepository provides data access methods for the user table.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserOnID retrieves a single user by ID.
// Returns apperrors.ErrUserNotFound if no such user exists.
func (s *UserRepository) GetUserOnID(userID string) (model.User, error) {
	query := `
          SELECT id, username, display_name, created_at
          FROM "user"
          WHERE id = ?
      `
	var u model.User
	var createdAtStr string

	err := s.db.QueryRow(query, userID).Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to query user table: %w", err)
	}

	u.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return u, nil
}

// CreateUser inserts a new user row.
func (s *UserRepository) CreateUser(u model.User) error {
	query := `
		INSERT INTO "user" (id, username, display_name, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, u.ID, u.Username, u.DisplayName, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}
