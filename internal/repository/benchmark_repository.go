package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/model"
)

// BenchmarkRepository provides data access methods for the benchmark_return
// table, the reference index series consumed by the beta calculation.
type BenchmarkRepository struct {
	db *sql.DB
}

// NewBenchmarkRepository creates a new BenchmarkRepository with the provided database connection.
func NewBenchmarkRepository(db *sql.DB) *BenchmarkRepository {
	return &BenchmarkRepository{db: db}
}

// GetReturns retrieves the full daily return series for a symbol, oldest first.
// Returns an empty slice when the symbol has no rows.
func (s *BenchmarkRepository) GetReturns(symbol string) ([]model.BenchmarkReturn, error) {
	query := `
		SELECT id, symbol, date, return_pct
		FROM benchmark_return
		WHERE symbol = ?
		ORDER BY date ASC
	`
	rows, err := s.db.Query(query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark_return table: %w", err)
	}
	defer rows.Close()

	returns := []model.BenchmarkReturn{}
	for rows.Next() {
		var r model.BenchmarkReturn
		var dateStr string

		if err := rows.Scan(&r.ID, &r.Symbol, &dateStr, &r.ReturnPct); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark_return results: %w", err)
		}

		r.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		returns = append(returns, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating benchmark_return table: %w", err)
	}

	return returns, nil
}

// UpsertReturn inserts or replaces the return row for (symbol, date).
func (s *BenchmarkRepository) UpsertReturn(r model.BenchmarkReturn) error {
	query := `
		INSERT INTO benchmark_return (id, symbol, date, return_pct)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET return_pct = excluded.return_pct
	`
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.Exec(query, id, r.Symbol, FormatDate(r.Date), r.ReturnPct)
	if err != nil {
		return fmt.Errorf("failed to upsert benchmark_return: %w", err)
	}
	return nil
}
