package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production database schema.
//
//nolint:funlen // Database schema DDL
func createTestSchema(db *sql.DB) error {
	schema := `
		-- User table (quoted because user is a reserved keyword)
		CREATE TABLE IF NOT EXISTS "user" (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			display_name VARCHAR(100) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Portfolio table
		CREATE TABLE IF NOT EXISTS portfolio (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			is_public BOOLEAN DEFAULT FALSE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(user_id) REFERENCES "user"(id) ON DELETE CASCADE
		);

		-- Stock table
		CREATE TABLE IF NOT EXISTS stock (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			ticker VARCHAR(10) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL,
			exchange VARCHAR(50),
			currency VARCHAR(3)
		);

		-- Stock price table
		CREATE TABLE IF NOT EXISTS stock_price (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			stock_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			price_open FLOAT NOT NULL,
			price_close FLOAT NOT NULL,
			price_high FLOAT NOT NULL,
			price_low FLOAT NOT NULL,
			FOREIGN KEY(stock_id) REFERENCES stock(id) ON DELETE CASCADE,
			CONSTRAINT unique_stock_price UNIQUE (stock_id, date)
		);

		-- Position snapshot table
		CREATE TABLE IF NOT EXISTS position_snapshot (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			stock_id VARCHAR(36) NOT NULL,
			date DATE NOT NULL,
			quantity FLOAT NOT NULL,
			average_cost FLOAT NOT NULL,
			current_value FLOAT NOT NULL,
			total_return FLOAT NOT NULL,
			position_weight FLOAT NOT NULL,
			last_transaction_type VARCHAR(10),
			last_transaction_date DATE,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(stock_id) REFERENCES stock(id),
			CONSTRAINT unique_position_snapshot UNIQUE (portfolio_id, stock_id, date)
		);

		-- Portfolio metric table
		CREATE TABLE IF NOT EXISTS portfolio_metric (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			hourly_return FLOAT NOT NULL,
			daily_return FLOAT NOT NULL,
			monthly_return FLOAT NOT NULL,
			total_return FLOAT NOT NULL,
			beta FLOAT NOT NULL,
			sharpe_ratio FLOAT NOT NULL,
			volatility FLOAT NOT NULL,
			portfolio_value FLOAT NOT NULL,
			risk_score FLOAT NOT NULL,
			risk_category VARCHAR(15) NOT NULL,
			last_updated_date DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE
		);

		-- Trade metric table
		CREATE TABLE IF NOT EXISTS trade_metric (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			stock_id VARCHAR(36) NOT NULL,
			entry_date DATE NOT NULL,
			exit_date DATE,
			average_cost FLOAT NOT NULL,
			exit_price FLOAT NOT NULL,
			quantity FLOAT NOT NULL,
			total_return FLOAT NOT NULL,
			is_best_trade BOOLEAN DEFAULT FALSE NOT NULL,
			is_worst_trade BOOLEAN DEFAULT FALSE NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(stock_id) REFERENCES stock(id)
		);

		-- Investment activity ledger
		CREATE TABLE IF NOT EXISTS investment_activity (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			stock_id VARCHAR(36) NOT NULL,
			action_type VARCHAR(4) NOT NULL,
			amount FLOAT NOT NULL,
			stock_quantity FLOAT NOT NULL,
			date DATETIME NOT NULL,
			old_position_weight FLOAT NOT NULL,
			new_position_weight FLOAT NOT NULL,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE,
			FOREIGN KEY(stock_id) REFERENCES stock(id)
		);

		-- Benchmark return series
		CREATE TABLE IF NOT EXISTS benchmark_return (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(10) NOT NULL,
			date DATE NOT NULL,
			return_pct FLOAT NOT NULL,
			CONSTRAINT unique_benchmark_return UNIQUE (symbol, date)
		);

		-- Scheduler run bookkeeping
		CREATE TABLE IF NOT EXISTS scheduler_run (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			run_date DATE NOT NULL,
			stage VARCHAR(20) NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			CONSTRAINT unique_scheduler_run UNIQUE (run_date, stage)
		);
	`

	_, err := db.Exec(schema)
	return err
}
