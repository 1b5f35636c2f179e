package model

import "time"

// Stock represents a tradable instrument known to the system.
type Stock struct {
	ID       string `json:"id"`
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// Quote is a resolved price for one stock, served from the local price store.
type Quote struct {
	StockID string  `json:"stockId"`
	Ticker  string  `json:"ticker"`
	Price   float64 `json:"price"`
}

// StockPrice represents one daily price row for a stock, supplied by the
// external market-data fetcher. The engine only reads this table.
type StockPrice struct {
	ID         string    `json:"id"`
	StockID    string    `json:"stockId"`
	Date       time.Time `json:"date"`
	PriceOpen  float64   `json:"priceOpen"`
	PriceClose float64   `json:"priceClose"`
	PriceHigh  float64   `json:"priceHigh"`
	PriceLow   float64   `json:"priceLow"`
}
