// Package marketdata supplies current and historical prices to the engine.
// The engine consumes prices through the Source interface and never invents
// them; the StoreSource implementation reads the stock_price table, which the
// scheduled refresh pass fills from the external fetch client.
package marketdata

import (
	"time"

	"github.com/stocktrackr/backend/internal/repository"
)

// Source exposes current price per stock and historical daily closes.
type Source interface {
	// CurrentPrice returns the most recent close for a stock.
	// Returns apperrors.ErrPriceUnavailable when no price is known.
	CurrentPrice(stockID string) (float64, error)

	// CloseOnOrBefore returns the most recent close on or before the date.
	// Returns apperrors.ErrPriceUnavailable when no such close exists.
	CloseOnOrBefore(stockID string, date time.Time) (float64, error)

	// CurrentPrices returns the latest close per stock in one call. Stocks
	// without a known price are absent from the map, not an error: a missing
	// price is a per-row condition the revaluation stage handles itself.
	CurrentPrices() (map[string]float64, error)
}

// StoreSource is a Source backed by the stock_price table.
type StoreSource struct {
	priceRepo *repository.PriceRepository
}

// NewStoreSource creates a Source reading from the local price store.
func NewStoreSource(priceRepo *repository.PriceRepository) *StoreSource {
	return &StoreSource{priceRepo: priceRepo}
}

// CurrentPrice returns the most recent close for a stock.
func (s *StoreSource) CurrentPrice(stockID string) (float64, error) {
	return s.priceRepo.GetLatestClose(stockID)
}

// CloseOnOrBefore returns the most recent close on or before the date.
func (s *StoreSource) CloseOnOrBefore(stockID string, date time.Time) (float64, error) {
	return s.priceRepo.GetCloseOnOrBefore(stockID, date)
}

// CurrentPrices returns the latest close per stock.
func (s *StoreSource) CurrentPrices() (map[string]float64, error) {
	return s.priceRepo.GetLatestCloses()
}
