package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stocktrackr/backend/internal/model"
)

// ActivityRepository provides data access methods for the investment_activity
// ledger. The ledger is append-only: rows are inserted once and never mutated.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository with the provided database connection.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// InsertActivity appends one ledger entry.
func (s *ActivityRepository) InsertActivity(a model.InvestmentActivity) error {
	query := `
		INSERT INTO investment_activity (
			id, portfolio_id, stock_id, action_type, amount, stock_quantity,
			date, old_position_weight, new_position_weight
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		a.ID,
		a.PortfolioID,
		a.StockID,
		a.ActionType,
		a.Amount,
		a.StockQuantity,
		a.Date.UTC().Format(time.RFC3339),
		a.OldPositionWeight,
		a.NewPositionWeight,
	)
	if err != nil {
		return fmt.Errorf("failed to insert investment_activity: %w", err)
	}
	return nil
}

// GetActivitiesOnPortfolioID retrieves the ledger for a portfolio, oldest first.
func (s *ActivityRepository) GetActivitiesOnPortfolioID(portfolioID string) ([]model.InvestmentActivity, error) {
	query := `
		SELECT id, portfolio_id, stock_id, action_type, amount, stock_quantity,
		       date, old_position_weight, new_position_weight
		FROM investment_activity
		WHERE portfolio_id = ?
		ORDER BY date ASC
	`
	rows, err := s.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment_activity table: %w", err)
	}
	defer rows.Close()

	activities := []model.InvestmentActivity{}
	for rows.Next() {
		var a model.InvestmentActivity
		var dateStr string

		err := rows.Scan(
			&a.ID,
			&a.PortfolioID,
			&a.StockID,
			&a.ActionType,
			&a.Amount,
			&a.StockQuantity,
			&dateStr,
			&a.OldPositionWeight,
			&a.NewPositionWeight,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment_activity results: %w", err)
		}

		a.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		activities = append(activities, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment_activity table: %w", err)
	}

	return activities, nil
}
