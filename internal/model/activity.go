package model

import "time"

// Investment activity action types.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionAdd  = "ADD"
)

// InvestmentActivity is an immutable ledger entry for a buy/sell/add action.
// Rows are created once per user action and never mutated or deleted; together
// with prices they are the engine's sole write-input.
type InvestmentActivity struct {
	ID                string    `json:"id"`
	PortfolioID       string    `json:"portfolioId"`
	StockID           string    `json:"stockId"`
	ActionType        string    `json:"actionType"`
	Amount            float64   `json:"amount"`
	StockQuantity     float64   `json:"stockQuantity"`
	Date              time.Time `json:"date"`
	OldPositionWeight float64   `json:"oldPositionWeight"`
	NewPositionWeight float64   `json:"newPositionWeight"`
}
