package model

import "time"

// TradeMetric represents a buy-to-sell cycle for one stock within one
// portfolio. ExitDate is nil while the position is still open; a trade is
// "closed" once ExitDate is set on full liquidation. The two boolean flags
// are exclusive markers recomputed by the ranker: among closed trades, at
// most one row per portfolio holds each flag.
type TradeMetric struct {
	ID           string     `json:"id"`
	PortfolioID  string     `json:"portfolioId"`
	StockID      string     `json:"stockId"`
	EntryDate    time.Time  `json:"entryDate"`
	ExitDate     *time.Time `json:"exitDate,omitempty"`
	AverageCost  float64    `json:"averageCost"`
	ExitPrice    float64    `json:"exitPrice"`
	Quantity     float64    `json:"quantity"`
	TotalReturn  float64    `json:"totalReturn"` // percentage, 2dp
	IsBestTrade  bool       `json:"isBestTrade"`
	IsWorstTrade bool       `json:"isWorstTrade"`
}

// Closed reports whether the trade has been fully liquidated.
func (t TradeMetric) Closed() bool {
	return t.ExitDate != nil
}

// TradeScope selects the trades a ranking operates over: a single portfolio,
// or every portfolio owned by one user. Exactly one field must be set.
type TradeScope struct {
	PortfolioID string
	UserID      string
}

// RankedTrades is the ranker's result for one scope.
type RankedTrades struct {
	Best  TradeMetric `json:"best"`
	Worst TradeMetric `json:"worst"`
}
