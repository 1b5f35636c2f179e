package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stocktrackr/backend/internal/model"
	"github.com/stocktrackr/backend/internal/repository"
)

// UserBuilder provides a fluent interface for creating test users.
//
// Example usage:
//
//	user := testutil.NewUser().WithUsername("alice").Build(t, db)
type UserBuilder struct {
	ID          string
	Username    string
	DisplayName string
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:          MakeID(),
		Username:    MakeUsername("user"),
		DisplayName: "Test User",
	}
}

// WithUsername sets a custom username.
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.Username = username
	return b
}

// WithDisplayName sets a custom display name.
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.DisplayName = name
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	query := `
		INSERT INTO "user" (id, username, display_name, created_at)
		VALUES (?, ?, ?, ?)
	`
	createdAt := time.Now().UTC()
	_, err := db.Exec(query, b.ID, b.Username, b.DisplayName, createdAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{
		ID:          b.ID,
		Username:    b.Username,
		DisplayName: b.DisplayName,
		CreatedAt:   createdAt,
	}
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	portfolio := testutil.NewPortfolio(user.ID).Public().Build(t, db)
type PortfolioBuilder struct {
	ID          string
	UserID      string
	Name        string
	Description string
	IsPublic    bool
}

// NewPortfolio creates a PortfolioBuilder owned by the given user.
func NewPortfolio(userID string) *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		UserID:      userID,
		Name:        "Test Portfolio",
		Description: "Test description",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Public marks the portfolio as publicly visible.
func (b *PortfolioBuilder) Public() *PortfolioBuilder {
	b.IsPublic = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, user_id, name, description, is_public, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	createdAt := time.Now().UTC()
	_, err := db.Exec(query, b.ID, b.UserID, b.Name, b.Description, b.IsPublic, createdAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:          b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		Description: b.Description,
		IsPublic:    b.IsPublic,
		CreatedAt:   createdAt,
	}
}

// StockBuilder provides a fluent interface for creating test stocks.
type StockBuilder struct {
	ID     string
	Ticker string
	Name   string
}

// NewStock creates a StockBuilder with sensible defaults.
func NewStock() *StockBuilder {
	return &StockBuilder{
		ID:     MakeID(),
		Ticker: MakeTicker("TST"),
		Name:   "Test Stock",
	}
}

// WithTicker sets a custom ticker.
func (b *StockBuilder) WithTicker(ticker string) *StockBuilder {
	b.Ticker = ticker
	return b
}

// Build creates the stock in the database and returns it.
func (b *StockBuilder) Build(t *testing.T, db *sql.DB) model.Stock {
	t.Helper()

	query := `
		INSERT INTO stock (id, ticker, name, exchange, currency)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, b.ID, b.Ticker, b.Name, "NASDAQ", "USD")
	if err != nil {
		t.Fatalf("Failed to create test stock: %v", err)
	}

	return model.Stock{
		ID:       b.ID,
		Ticker:   b.Ticker,
		Name:     b.Name,
		Exchange: "NASDAQ",
		Currency: "USD",
	}
}

// PriceBuilder provides a fluent interface for creating test price rows.
type PriceBuilder struct {
	StockID string
	Date    time.Time
	Close   float64
}

// NewPrice creates a PriceBuilder for a stock.
func NewPrice(stockID string) *PriceBuilder {
	return &PriceBuilder{
		StockID: stockID,
		Date:    time.Now().UTC(),
		Close:   100,
	}
}

// WithDate sets the price date.
func (b *PriceBuilder) WithDate(date time.Time) *PriceBuilder {
	b.Date = date
	return b
}

// WithClose sets the close price.
func (b *PriceBuilder) WithClose(close float64) *PriceBuilder {
	b.Close = close
	return b
}

// Build creates the price row in the database.
func (b *PriceBuilder) Build(t *testing.T, db *sql.DB) {
	t.Helper()

	query := `
		INSERT INTO stock_price (id, stock_id, date, price_open, price_close, price_high, price_low)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, MakeID(), b.StockID, repository.FormatDate(b.Date), b.Close, b.Close, b.Close, b.Close)
	if err != nil {
		t.Fatalf("Failed to create test price: %v", err)
	}
}

// SnapshotBuilder provides a fluent interface for creating test snapshots.
//
// Example usage:
//
//	testutil.NewSnapshot(portfolio.ID, stock.ID).
//	    WithDate(yesterday).
//	    WithQuantity(10).
//	    WithAverageCost(5).
//	    Build(t, db)
type SnapshotBuilder struct {
	snap model.PositionSnapshot
}

// NewSnapshot creates a SnapshotBuilder with sensible defaults.
func NewSnapshot(portfolioID, stockID string) *SnapshotBuilder {
	return &SnapshotBuilder{
		snap: model.PositionSnapshot{
			ID:          MakeID(),
			PortfolioID: portfolioID,
			StockID:     stockID,
			Date:        time.Now().UTC(),
			Quantity:    10,
			AverageCost: 100,
			LastUpdated: time.Now().UTC(),
		},
	}
}

// WithDate sets the snapshot date.
func (b *SnapshotBuilder) WithDate(date time.Time) *SnapshotBuilder {
	b.snap.Date = date
	return b
}

// WithQuantity sets the held quantity.
func (b *SnapshotBuilder) WithQuantity(quantity float64) *SnapshotBuilder {
	b.snap.Quantity = quantity
	return b
}

// WithAverageCost sets the average cost per share.
func (b *SnapshotBuilder) WithAverageCost(cost float64) *SnapshotBuilder {
	b.snap.AverageCost = cost
	return b
}

// WithCurrentValue sets the stored per-share price.
func (b *SnapshotBuilder) WithCurrentValue(value float64) *SnapshotBuilder {
	b.snap.CurrentValue = value
	return b
}

// WithWeight sets the stored position weight.
func (b *SnapshotBuilder) WithWeight(weight float64) *SnapshotBuilder {
	b.snap.PositionWeight = weight
	return b
}

// Build creates the snapshot in the database and returns it.
func (b *SnapshotBuilder) Build(t *testing.T, db *sql.DB) model.PositionSnapshot {
	t.Helper()

	query := `
		INSERT INTO position_snapshot (
			id, portfolio_id, stock_id, date, quantity, average_cost, current_value,
			total_return, position_weight, last_transaction_type, last_transaction_date, last_updated
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?)
	`
	_, err := db.Exec(query,
		b.snap.ID,
		b.snap.PortfolioID,
		b.snap.StockID,
		repository.FormatDate(b.snap.Date),
		b.snap.Quantity,
		b.snap.AverageCost,
		b.snap.CurrentValue,
		b.snap.TotalReturn,
		b.snap.PositionWeight,
		b.snap.LastUpdated.Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("Failed to create test snapshot: %v", err)
	}

	return b.snap
}

// TradeBuilder provides a fluent interface for creating test trades.
type TradeBuilder struct {
	trade model.TradeMetric
}

// NewTrade creates an open TradeBuilder with sensible defaults.
func NewTrade(portfolioID, stockID string) *TradeBuilder {
	return &TradeBuilder{
		trade: model.TradeMetric{
			ID:          MakeID(),
			PortfolioID: portfolioID,
			StockID:     stockID,
			EntryDate:   time.Now().UTC().AddDate(0, 0, -7),
			AverageCost: 100,
			Quantity:    10,
		},
	}
}

// WithEntryDate sets the entry date.
func (b *TradeBuilder) WithEntryDate(date time.Time) *TradeBuilder {
	b.trade.EntryDate = date
	return b
}

// Closed marks the trade closed on the given exit date with the given return.
func (b *TradeBuilder) Closed(exitDate time.Time, totalReturn float64) *TradeBuilder {
	b.trade.ExitDate = &exitDate
	b.trade.TotalReturn = totalReturn
	b.trade.ExitPrice = b.trade.AverageCost * (1 + totalReturn/100)
	return b
}

// Build creates the trade in the database and returns it.
func (b *TradeBuilder) Build(t *testing.T, db *sql.DB) model.TradeMetric {
	t.Helper()

	query := `
		INSERT INTO trade_metric (
			id, portfolio_id, stock_id, entry_date, exit_date, average_cost,
			exit_price, quantity, total_return, is_best_trade, is_worst_trade
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var exitDate any
	if b.trade.ExitDate != nil {
		exitDate = repository.FormatDate(*b.trade.ExitDate)
	}
	_, err := db.Exec(query,
		b.trade.ID,
		b.trade.PortfolioID,
		b.trade.StockID,
		repository.FormatDate(b.trade.EntryDate),
		exitDate,
		b.trade.AverageCost,
		b.trade.ExitPrice,
		b.trade.Quantity,
		b.trade.TotalReturn,
		b.trade.IsBestTrade,
		b.trade.IsWorstTrade,
	)
	if err != nil {
		t.Fatalf("Failed to create test trade: %v", err)
	}

	return b.trade
}

// MetricBuilder provides a fluent interface for creating test metric rows.
type MetricBuilder struct {
	metric model.PortfolioMetric
}

// NewMetric creates a MetricBuilder with sensible defaults.
func NewMetric(portfolioID string) *MetricBuilder {
	return &MetricBuilder{
		metric: model.PortfolioMetric{
			ID:              MakeID(),
			PortfolioID:     portfolioID,
			RiskCategory:    model.RiskConservative,
			LastUpdatedDate: time.Now().UTC(),
		},
	}
}

// WithTotalReturn sets the total return.
func (b *MetricBuilder) WithTotalReturn(totalReturn float64) *MetricBuilder {
	b.metric.TotalReturn = totalReturn
	return b
}

// WithPortfolioValue sets the portfolio value.
func (b *MetricBuilder) WithPortfolioValue(value float64) *MetricBuilder {
	b.metric.PortfolioValue = value
	return b
}

// WithLastUpdatedDate sets the row's timestamp.
func (b *MetricBuilder) WithLastUpdatedDate(date time.Time) *MetricBuilder {
	b.metric.LastUpdatedDate = date
	return b
}

// Build creates the metric row in the database and returns it.
func (b *MetricBuilder) Build(t *testing.T, db *sql.DB) model.PortfolioMetric {
	t.Helper()

	query := `
		INSERT INTO portfolio_metric (
			id, portfolio_id, hourly_return, daily_return, monthly_return, total_return,
			beta, sharpe_ratio, volatility, portfolio_value, risk_score, risk_category, last_updated_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		b.metric.ID,
		b.metric.PortfolioID,
		b.metric.HourlyReturn,
		b.metric.DailyReturn,
		b.metric.MonthlyReturn,
		b.metric.TotalReturn,
		b.metric.Beta,
		b.metric.SharpeRatio,
		b.metric.Volatility,
		b.metric.PortfolioValue,
		b.metric.RiskScore,
		b.metric.RiskCategory,
		b.metric.LastUpdatedDate.Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("Failed to create test metric: %v", err)
	}

	return b.metric
}

// CreateBenchmarkReturn inserts one benchmark return observation.
func CreateBenchmarkReturn(t *testing.T, db *sql.DB, symbol string, date time.Time, returnPct float64) {
	t.Helper()

	query := `
		INSERT INTO benchmark_return (id, symbol, date, return_pct)
		VALUES (?, ?, ?, ?)
	`
	_, err := db.Exec(query, MakeID(), symbol, repository.FormatDate(date), returnPct)
	if err != nil {
		t.Fatalf("Failed to create test benchmark return: %v", err)
	}
}
