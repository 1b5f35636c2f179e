package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// PriceRepository provides data access methods for the stock_price table.
// The table is written by the market-data refresh pass and read by the
// revaluation stage; the engine never invents prices.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetLatestClose returns the most recent close price for a stock.
// Returns apperrors.ErrPriceUnavailable when no price rows exist.
func (s *PriceRepository) GetLatestClose(stockID string) (float64, error) {
	query := `
		SELECT price_close
		FROM stock_price
		WHERE stock_id = ?
		ORDER BY date DESC
		LIMIT 1
	`
	var price float64
	err := s.db.QueryRow(query, stockID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrPriceUnavailable
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query stock_price table: %w", err)
	}
	return price, nil
}

// GetCloseOnOrBefore returns the most recent close on or before the target date.
// Returns apperrors.ErrPriceUnavailable when no such row exists.
func (s *PriceRepository) GetCloseOnOrBefore(stockID string, date time.Time) (float64, error) {
	query := `
		SELECT price_close
		FROM stock_price
		WHERE stock_id = ?
		AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`
	var price float64
	err := s.db.QueryRow(query, stockID, FormatDate(date)).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrPriceUnavailable
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query stock_price table: %w", err)
	}
	return price, nil
}

// GetLatestCloses returns the latest close per stock in one query, keyed by
// stock ID. Stocks without any price row are absent from the map.
func (s *PriceRepository) GetLatestCloses() (map[string]float64, error) {
	query := `
		SELECT sp.stock_id, sp.price_close
		FROM stock_price sp
		JOIN (
			SELECT stock_id, MAX(date) AS max_date
			FROM stock_price
			GROUP BY stock_id
		) latest ON latest.stock_id = sp.stock_id AND latest.max_date = sp.date
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock_price table: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]float64)
	for rows.Next() {
		var stockID string
		var price float64
		if err := rows.Scan(&stockID, &price); err != nil {
			return nil, fmt.Errorf("failed to scan stock_price table results: %w", err)
		}
		prices[stockID] = price
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock_price table: %w", err)
	}

	return prices, nil
}

// UpsertPrice inserts or replaces the price row for (stock, date).
// The market-data refresh pass may re-fetch the same day; last write wins.
func (s *PriceRepository) UpsertPrice(p model.StockPrice) error {
	query := `
		INSERT INTO stock_price (id, stock_id, date, price_open, price_close, price_high, price_low)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stock_id, date) DO UPDATE SET
			price_open = excluded.price_open,
			price_close = excluded.price_close,
			price_high = excluded.price_high,
			price_low = excluded.price_low
	`
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.Exec(query, id, p.StockID, FormatDate(p.Date), p.PriceOpen, p.PriceClose, p.PriceHigh, p.PriceLow)
	if err != nil {
		return fmt.Errorf("failed to upsert stock_price: %w", err)
	}
	return nil
}
