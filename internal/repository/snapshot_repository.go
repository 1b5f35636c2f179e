package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// PositionPair identifies one (portfolio, stock) holding independent of date.
type PositionPair struct {
	PortfolioID string
	StockID     string
}

// DateValue is one point of a portfolio's snapshot-derived value series.
type DateValue struct {
	Date  time.Time
	Value float64
}

// SnapshotRepository provides data access methods for the position_snapshot table.
//
// Write methods take a *sql.Tx: the engine updates all rows of one portfolio
// and date inside a single transaction so concurrent readers see either the
// pre-run or the fully post-run state, never a partial weight set.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Begin starts a transaction scoped to one portfolio/date unit of work.
func (s *SnapshotRepository) Begin() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	return tx, nil
}

// GetActivePairs returns every distinct (portfolio, stock) pair that has at
// least one snapshot row, grouped by portfolio ID. These are the pairs
// carry-forward must ensure a row for on the target date.
func (s *SnapshotRepository) GetActivePairs() (map[string][]PositionPair, error) {
	query := `
		SELECT DISTINCT portfolio_id, stock_id
		FROM position_snapshot
		ORDER BY portfolio_id, stock_id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	defer rows.Close()

	pairs := make(map[string][]PositionPair)
	for rows.Next() {
		var p PositionPair
		if err := rows.Scan(&p.PortfolioID, &p.StockID); err != nil {
			return nil, fmt.Errorf("failed to scan position_snapshot pairs: %w", err)
		}
		pairs[p.PortfolioID] = append(pairs[p.PortfolioID], p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position_snapshot table: %w", err)
	}

	return pairs, nil
}

// GetLatestBeforeTx finds the most recent snapshot strictly earlier than the
// target date for a (portfolio, stock) pair. Returns apperrors.ErrSnapshotNotFound
// when no earlier row exists (the position did not exist yet).
func (s *SnapshotRepository) GetLatestBeforeTx(tx *sql.Tx, portfolioID, stockID string, date time.Time) (model.PositionSnapshot, error) {
	query := `
		SELECT id, portfolio_id, stock_id, date, quantity, average_cost, current_value,
		       total_return, position_weight, last_transaction_type, last_transaction_date, last_updated
		FROM position_snapshot
		WHERE portfolio_id = ?
		AND stock_id = ?
		AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`
	row := tx.QueryRow(query, portfolioID, stockID, FormatDate(date))
	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PositionSnapshot{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return model.PositionSnapshot{}, err
	}
	return snap, nil
}

// GetLatestBefore is the non-transactional variant of GetLatestBeforeTx,
// used by activity recording outside an engine run.
func (s *SnapshotRepository) GetLatestBefore(portfolioID, stockID string, date time.Time) (model.PositionSnapshot, error) {
	query := snapshotSelect + `
		WHERE portfolio_id = ?
		AND stock_id = ?
		AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`
	row := s.db.QueryRow(query, portfolioID, stockID, FormatDate(date))
	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PositionSnapshot{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return model.PositionSnapshot{}, err
	}
	return snap, nil
}

// ExistsOnDateTx reports whether a snapshot row exists for (portfolio, stock, date).
func (s *SnapshotRepository) ExistsOnDateTx(tx *sql.Tx, portfolioID, stockID string, date time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM position_snapshot
		WHERE portfolio_id = ? AND stock_id = ? AND date = ?
	`
	var count int
	err := tx.QueryRow(query, portfolioID, stockID, FormatDate(date)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	return count > 0, nil
}

// InsertTx inserts a new snapshot row inside the portfolio/date transaction.
func (s *SnapshotRepository) InsertTx(tx *sql.Tx, snap model.PositionSnapshot) error {
	query := `
		INSERT INTO position_snapshot (
			id, portfolio_id, stock_id, date, quantity, average_cost, current_value,
			total_return, position_weight, last_transaction_type, last_transaction_date, last_updated
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var lastTxDate any
	if !snap.LastTransactionDate.IsZero() {
		lastTxDate = FormatDate(snap.LastTransactionDate)
	}
	_, err := tx.Exec(query,
		snap.ID,
		snap.PortfolioID,
		snap.StockID,
		FormatDate(snap.Date),
		snap.Quantity,
		snap.AverageCost,
		snap.CurrentValue,
		snap.TotalReturn,
		snap.PositionWeight,
		snap.LastTransactionType,
		lastTxDate,
		snap.LastUpdated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert position_snapshot: %w", err)
	}
	return nil
}

// GetOnDateTx retrieves all snapshot rows for a portfolio on a date, inside
// the portfolio/date transaction. Ordered by stock ID for stable iteration.
func (s *SnapshotRepository) GetOnDateTx(tx *sql.Tx, portfolioID string, date time.Time) ([]model.PositionSnapshot, error) {
	query := snapshotSelect + `
		WHERE portfolio_id = ?
		AND date = ?
		ORDER BY stock_id ASC
	`
	rows, err := tx.Query(query, portfolioID, FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	return collectSnapshots(rows)
}

// GetOnDate retrieves all snapshot rows for a portfolio on a date outside any
// transaction, for the read API.
func (s *SnapshotRepository) GetOnDate(portfolioID string, date time.Time) ([]model.PositionSnapshot, error) {
	query := snapshotSelect + `
		WHERE portfolio_id = ?
		AND date = ?
		ORDER BY stock_id ASC
	`
	rows, err := s.db.Query(query, portfolioID, FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	return collectSnapshots(rows)
}

// HasLaterSnapshot reports whether the pair has a snapshot row strictly after
// the date. Such rows were carried forward from the earlier history, so that
// history must not change underneath them.
func (s *SnapshotRepository) HasLaterSnapshot(portfolioID, stockID string, date time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM position_snapshot
		WHERE portfolio_id = ? AND stock_id = ? AND date > ?
	`
	var count int
	err := s.db.QueryRow(query, portfolioID, stockID, FormatDate(date)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	return count > 0, nil
}

// GetPairOnDate retrieves the snapshot row for one (portfolio, stock, date).
// Returns apperrors.ErrSnapshotNotFound when absent.
func (s *SnapshotRepository) GetPairOnDate(portfolioID, stockID string, date time.Time) (model.PositionSnapshot, error) {
	query := snapshotSelect + `
		WHERE portfolio_id = ?
		AND stock_id = ?
		AND date = ?
	`
	row := s.db.QueryRow(query, portfolioID, stockID, FormatDate(date))
	snap, err := scanSnapshotRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PositionSnapshot{}, apperrors.ErrSnapshotNotFound
	}
	if err != nil {
		return model.PositionSnapshot{}, err
	}
	return snap, nil
}

// UpdateValuationTx writes the revaluation stage's output for one row.
func (s *SnapshotRepository) UpdateValuationTx(tx *sql.Tx, id string, currentValue, totalReturn float64, lastUpdated time.Time) error {
	query := `
		UPDATE position_snapshot
		SET current_value = ?, total_return = ?, last_updated = ?
		WHERE id = ?
	`
	_, err := tx.Exec(query, currentValue, totalReturn, lastUpdated.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update position_snapshot valuation: %w", err)
	}
	return nil
}

// UpdateWeightTx writes the weight normalizer's output for one row.
func (s *SnapshotRepository) UpdateWeightTx(tx *sql.Tx, id string, weight float64) error {
	query := `
		UPDATE position_snapshot
		SET position_weight = ?
		WHERE id = ?
	`
	_, err := tx.Exec(query, weight, id)
	if err != nil {
		return fmt.Errorf("failed to update position_snapshot weight: %w", err)
	}
	return nil
}

// UpdateWeight is the non-transactional variant of UpdateWeightTx, used by
// activity recording to refresh the acted-on position's weight.
func (s *SnapshotRepository) UpdateWeight(id string, weight float64) error {
	query := `
		UPDATE position_snapshot
		SET position_weight = ?
		WHERE id = ?
	`
	_, err := s.db.Exec(query, weight, id)
	if err != nil {
		return fmt.Errorf("failed to update position_snapshot weight: %w", err)
	}
	return nil
}

// UpdatePosition rewrites quantity, cost and last-transaction fields of one
// row, used by activity recording when a buy/sell lands on an existing
// same-date snapshot.
func (s *SnapshotRepository) UpdatePosition(id string, quantity, averageCost float64, txType string, txDate, lastUpdated time.Time) error {
	query := `
		UPDATE position_snapshot
		SET quantity = ?, average_cost = ?, last_transaction_type = ?, last_transaction_date = ?, last_updated = ?
		WHERE id = ?
	`
	_, err := s.db.Exec(query, quantity, averageCost, txType, FormatDate(txDate), lastUpdated.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update position_snapshot position: %w", err)
	}
	return nil
}

// Insert inserts a new snapshot row outside a run transaction, used by
// activity recording when a position is first opened.
func (s *SnapshotRepository) Insert(snap model.PositionSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	if err := s.InsertTx(tx, snap); err != nil {
		//nolint:errcheck // Rollback error is secondary to the insert failure
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetValueSeries returns the portfolio's daily value series derived from
// snapshots: SUM(quantity * current_value) per date, ascending. current_value
// holds the per-share price, so the product is the holding's market value.
// Returns an empty slice for portfolios with no snapshot history.
func (s *SnapshotRepository) GetValueSeries(portfolioID string) ([]DateValue, error) {
	query := `
		SELECT date, SUM(quantity * current_value)
		FROM position_snapshot
		WHERE portfolio_id = ?
		GROUP BY date
		ORDER BY date ASC
	`
	rows, err := s.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	defer rows.Close()

	series := []DateValue{}
	for rows.Next() {
		var dateStr string
		var dv DateValue
		if err := rows.Scan(&dateStr, &dv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan value series results: %w", err)
		}
		dv.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		series = append(series, dv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating value series: %w", err)
	}

	return series, nil
}

const snapshotSelect = `
	SELECT id, portfolio_id, stock_id, date, quantity, average_cost, current_value,
	       total_return, position_weight, last_transaction_type, last_transaction_date, last_updated
	FROM position_snapshot
`

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshotRow(row rowScanner) (model.PositionSnapshot, error) {
	var snap model.PositionSnapshot
	var dateStr, lastUpdatedStr string
	var lastTxType, lastTxDate sql.NullString

	err := row.Scan(
		&snap.ID,
		&snap.PortfolioID,
		&snap.StockID,
		&dateStr,
		&snap.Quantity,
		&snap.AverageCost,
		&snap.CurrentValue,
		&snap.TotalReturn,
		&snap.PositionWeight,
		&lastTxType,
		&lastTxDate,
		&lastUpdatedStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PositionSnapshot{}, err
	}
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("failed to scan position_snapshot results: %w", err)
	}

	snap.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("failed to parse date: %w", err)
	}

	snap.LastUpdated, err = ParseTime(lastUpdatedStr)
	if err != nil {
		return model.PositionSnapshot{}, fmt.Errorf("failed to parse last_updated: %w", err)
	}

	if lastTxType.Valid {
		snap.LastTransactionType = lastTxType.String
	}
	if lastTxDate.Valid {
		snap.LastTransactionDate, err = ParseTime(lastTxDate.String)
		if err != nil {
			return model.PositionSnapshot{}, fmt.Errorf("failed to parse last_transaction_date: %w", err)
		}
	}

	return snap, nil
}

func collectSnapshots(rows *sql.Rows) ([]model.PositionSnapshot, error) {
	defer rows.Close()

	snapshots := []model.PositionSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position_snapshot table: %w", err)
	}

	return snapshots, nil
}
