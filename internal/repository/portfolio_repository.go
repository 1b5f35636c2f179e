package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves portfolios from the database based on filter criteria.
// The filter allows restricting to public portfolios and/or a single owner.
// Returns an empty slice if no portfolios match.
func (s *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
          SELECT id, user_id, name, description, is_public, created_at
          FROM portfolio
          WHERE 1=1
      `
	var args []any

	if filter.PublicOnly {
		query += " AND is_public = ?"
		args = append(args, 1)
	}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}

	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolioOnID retrieves a single portfolio by ID.
// Returns apperrors.ErrPortfolioNotFound if no such portfolio exists.
func (s *PortfolioRepository) GetPortfolioOnID(portfolioID string) (model.Portfolio, error) {
	query := `
          SELECT id, user_id, name, description, is_public, created_at
          FROM portfolio
          WHERE id = ?
      `
	var p model.Portfolio
	var createdAtStr string

	err := s.db.QueryRow(query, portfolioID).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.IsPublic,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return p, nil
}

// GetPortfolioIDsOnUserID returns the IDs of all portfolios owned by a user.
// Returns an empty slice when the user owns none (not an error).
func (s *PortfolioRepository) GetPortfolioIDsOnUserID(userID string) ([]string, error) {
	query := `
		SELECT id
		FROM portfolio
		WHERE user_id = ?
	`
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return ids, nil
}

// CreatePortfolio inserts a new portfolio row.
func (s *PortfolioRepository) CreatePortfolio(p model.Portfolio) error {
	query := `
		INSERT INTO portfolio (id, user_id, name, description, is_public, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, p.ID, p.UserID, p.Name, p.Description, p.IsPublic, p.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

func scanPortfolio(rows *sql.Rows) (model.Portfolio, error) {
	var p model.Portfolio
	var createdAtStr string

	err := rows.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.IsPublic,
		&createdAtStr,
	)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return p, nil
}
