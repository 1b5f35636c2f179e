package request

// RecordActivityRequest represents the request body for recording a
// buy/sell/add action. UserID names the acting caller; the portfolio must
// belong to them.
type RecordActivityRequest struct {
	UserID        string  `json:"userId"`
	StockID       string  `json:"stockId"`
	ActionType    string  `json:"actionType"`
	Quantity      float64 `json:"quantity"`
	PricePerShare float64 `json:"pricePerShare"`
	Date          string  `json:"date"`
}
