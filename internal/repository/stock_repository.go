package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/stocktrackr/backend/internal/apperrors"
	"github.com/stocktrackr/backend/internal/model"
)

// StockRepository provides data access methods for the stock table.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new StockRepository with the provided database connection.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// GetStocks retrieves all stocks known to the system.
func (s *StockRepository) GetStocks() ([]model.Stock, error) {
	query := `
		SELECT id, ticker, name, exchange, currency
		FROM stock
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock table: %w", err)
	}
	defer rows.Close()

	stocks := []model.Stock{}
	for rows.Next() {
		var st model.Stock
		err := rows.Scan(&st.ID, &st.Ticker, &st.Name, &st.Exchange, &st.Currency)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock table results: %w", err)
		}
		stocks = append(stocks, st)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock table: %w", err)
	}

	return stocks, nil
}

// GetStockOnID retrieves a single stock by ID.
// Returns apperrors.ErrStockNotFound if no such stock exists.
func (s *StockRepository) GetStockOnID(stockID string) (model.Stock, error) {
	query := `
		SELECT id, ticker, name, exchange, currency
		FROM stock
		WHERE id = ?
	`
	var st model.Stock
	err := s.db.QueryRow(query, stockID).Scan(&st.ID, &st.Ticker, &st.Name, &st.Exchange, &st.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Stock{}, apperrors.ErrStockNotFound
	}
	if err != nil {
		return model.Stock{}, fmt.Errorf("failed to query stock: %w", err)
	}
	return st, nil
}

// GetStockOnTicker retrieves a single stock by ticker symbol.
// Returns apperrors.ErrStockNotFound if no such stock exists.
func (s *StockRepository) GetStockOnTicker(ticker string) (model.Stock, error) {
	query := `
		SELECT id, ticker, name, exchange, currency
		FROM stock
		WHERE ticker = ?
	`
	var st model.Stock
	err := s.db.QueryRow(query, ticker).Scan(&st.ID, &st.Ticker, &st.Name, &st.Exchange, &st.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Stock{}, apperrors.ErrStockNotFound
	}
	if err != nil {
		return model.Stock{}, fmt.Errorf("failed to query stock: %w", err)
	}
	return st, nil
}

// CreateStock inserts a new stock row.
func (s *StockRepository) CreateStock(st model.Stock) error {
	query := `
		INSERT INTO stock (id, ticker, name, exchange, currency)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, st.ID, st.Ticker, st.Name, st.Exchange, st.Currency)
	if err != nil {
		return fmt.Errorf("failed to insert stock: %w", err)
	}
	return nil
}
