package model

import "time"

// Portfolio represents a portfolio from the database.
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PortfolioFilter controls which portfolios a query returns.
type PortfolioFilter struct {
	PublicOnly bool
	UserID     string // empty means all users
}
