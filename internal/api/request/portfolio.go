package request

// CreatePortfolioRequest represents the request body for creating a portfolio
type CreatePortfolioRequest struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// CreateStockRequest represents the request body for registering a stock
type CreateStockRequest struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}
