package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// TradeRepository provides data access methods for the trade_metric table.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository creates a new TradeRepository with the provided database connection.
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeSelect = `
	SELECT id, portfolio_id, stock_id, entry_date, exit_date, average_cost,
	       exit_price, quantity, total_return, is_best_trade, is_worst_trade
	FROM trade_metric
`

// CreateTrade inserts a new trade row, normally with a nil exit date (open trade).
func (s *TradeRepository) CreateTrade(t model.TradeMetric) error {
	query := `
		INSERT INTO trade_metric (
			id, portfolio_id, stock_id, entry_date, exit_date, average_cost,
			exit_price, quantity, total_return, is_best_trade, is_worst_trade
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var exitDate any
	if t.ExitDate != nil {
		exitDate = FormatDate(*t.ExitDate)
	}
	_, err := s.db.Exec(query,
		t.ID,
		t.PortfolioID,
		t.StockID,
		FormatDate(t.EntryDate),
		exitDate,
		t.AverageCost,
		t.ExitPrice,
		t.Quantity,
		t.TotalReturn,
		t.IsBestTrade,
		t.IsWorstTrade,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade_metric: %w", err)
	}
	return nil
}

// GetOpenTrade retrieves the open trade (exit_date is null) for a
// (portfolio, stock) pair. Returns apperrors.ErrTradeNotFound when absent.
func (s *TradeRepository) GetOpenTrade(portfolioID, stockID string) (model.TradeMetric, error) {
	query := tradeSelect + `
		WHERE portfolio_id = ?
		AND stock_id = ?
		AND exit_date IS NULL
		ORDER BY entry_date DESC
		LIMIT 1
	`
	row := s.db.QueryRow(query, portfolioID, stockID)
	t, err := scanTradeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TradeMetric{}, apperrors.ErrTradeNotFound
	}
	if err != nil {
		return model.TradeMetric{}, err
	}
	return t, nil
}

// CloseTrade sets the exit fields of a trade on full liquidation.
func (s *TradeRepository) CloseTrade(tradeID string, exitDate time.Time, exitPrice, totalReturn float64) error {
	query := `
		UPDATE trade_metric
		SET exit_date = ?, exit_price = ?, total_return = ?
		WHERE id = ?
	`
	_, err := s.db.Exec(query, FormatDate(exitDate), exitPrice, totalReturn, tradeID)
	if err != nil {
		return fmt.Errorf("failed to close trade_metric: %w", err)
	}
	return nil
}

// GetClosedTradesOnPortfolioIDs retrieves all closed trades (exit_date set)
// across the given portfolios, ordered by exit date ascending. Returns an
// empty slice when there are none.
func (s *TradeRepository) GetClosedTradesOnPortfolioIDs(portfolioIDs []string) ([]model.TradeMetric, error) {
	if len(portfolioIDs) == 0 {
		return []model.TradeMetric{}, nil
	}

	placeholders := make([]string, len(portfolioIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := tradeSelect + `
		WHERE portfolio_id IN (` + strings.Join(placeholders, ",") + `)
		AND exit_date IS NOT NULL
		ORDER BY exit_date ASC, id ASC
	`

	args := make([]any, len(portfolioIDs))
	for i, id := range portfolioIDs {
		args[i] = id
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade_metric table: %w", err)
	}
	defer rows.Close()

	trades := []model.TradeMetric{}
	for rows.Next() {
		t, err := scanTradeRow(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade_metric table: %w", err)
	}

	return trades, nil
}

// ReassignFlags clears the best/worst flags across the given portfolios and
// sets them on the new winners, all in one transaction so readers never see a
// scope with two best trades or a stale winner.
func (s *TradeRepository) ReassignFlags(portfolioIDs []string, bestID, worstID string) error {
	if len(portfolioIDs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin flag transaction: %w", err)
	}
	defer func() {
		//nolint:errcheck // Rollback after commit is a no-op
		tx.Rollback()
	}()

	placeholders := make([]string, len(portfolioIDs))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	clearQuery := `
		UPDATE trade_metric
		SET is_best_trade = 0, is_worst_trade = 0
		WHERE portfolio_id IN (` + strings.Join(placeholders, ",") + `)
	`
	args := make([]any, len(portfolioIDs))
	for i, id := range portfolioIDs {
		args[i] = id
	}

	if _, err := tx.Exec(clearQuery, args...); err != nil {
		return fmt.Errorf("failed to clear trade flags: %w", err)
	}

	if bestID != "" {
		if _, err := tx.Exec(`UPDATE trade_metric SET is_best_trade = 1 WHERE id = ?`, bestID); err != nil {
			return fmt.Errorf("failed to set best trade flag: %w", err)
		}
	}
	if worstID != "" {
		if _, err := tx.Exec(`UPDATE trade_metric SET is_worst_trade = 1 WHERE id = ?`, worstID); err != nil {
			return fmt.Errorf("failed to set worst trade flag: %w", err)
		}
	}

	return tx.Commit()
}

func scanTradeRow(row rowScanner) (model.TradeMetric, error) {
	var t model.TradeMetric
	var entryDateStr string
	var exitDateStr sql.NullString

	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&t.StockID,
		&entryDateStr,
		&exitDateStr,
		&t.AverageCost,
		&t.ExitPrice,
		&t.Quantity,
		&t.TotalReturn,
		&t.IsBestTrade,
		&t.IsWorstTrade,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TradeMetric{}, err
	}
	if err != nil {
		return model.TradeMetric{}, fmt.Errorf("failed to scan trade_metric results: %w", err)
	}

	t.EntryDate, err = ParseTime(entryDateStr)
	if err != nil {
		return model.TradeMetric{}, fmt.Errorf("failed to parse entry_date: %w", err)
	}

	if exitDateStr.Valid {
		exitDate, err := ParseTime(exitDateStr.String)
		if err != nil {
			return model.TradeMetric{}, fmt.Errorf("failed to parse exit_date: %w", err)
		}
		t.ExitDate = &exitDate
	}

	return t, nil
}
