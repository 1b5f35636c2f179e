package model

import "time"

// PositionSnapshot represents a portfolio's holding of one stock, valued as of
// one calendar date. Rows form an append-only time series keyed by
// (portfolio_id, stock_id, date): carry-forward creates the row for a new
// date, revaluation and weight normalization mutate it in place on that same
// date, and it is never deleted or retroactively edited afterwards.
type PositionSnapshot struct {
	ID                  string    `json:"id"`
	PortfolioID         string    `json:"portfolioId"`
	StockID             string    `json:"stockId"`
	Date                time.Time `json:"date"`
	Quantity            float64   `json:"quantity"`
	AverageCost         float64   `json:"averageCost"`
	CurrentValue        float64   `json:"currentValue"`        // current price per share
	TotalReturn         float64   `json:"totalReturn"`         // percentage, 2dp
	PositionWeight      float64   `json:"positionWeight"`      // share of cost basis, 4dp
	LastTransactionType string    `json:"lastTransactionType"` // BUY/SELL/ADD
	LastTransactionDate time.Time `json:"lastTransactionDate"`
	LastUpdated         time.Time `json:"lastUpdated"`
}

// CostBasis returns the capital committed to the holding (average cost x quantity).
func (s PositionSnapshot) CostBasis() float64 {
	return s.AverageCost * s.Quantity
}
